package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestBuild_Defaults(t *testing.T) {
	cfg := build(viper.New())

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 365, cfg.Forecast.LookbackDays)
	assert.Equal(t, 4, cfg.Forecast.Workers)
	assert.Equal(t, "abort", cfg.Forecast.FailurePolicy)
	assert.Equal(t, 5*time.Minute, cfg.Forecast.RunTimeout())
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, int64(10), cfg.Database.MaxConcurrentTx)
}

func TestBuild_EnvOverrides(t *testing.T) {
	t.Setenv("FORECAST_WORKERS", "1")
	t.Setenv("FORECAST_FAILURE_POLICY", " SKIP ")
	t.Setenv("FORECAST_RUN_TIMEOUT_SECONDS", "30")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg := build(viper.New())

	assert.Equal(t, 1, cfg.Forecast.Workers)
	assert.Equal(t, "skip", cfg.Forecast.FailurePolicy)
	assert.Equal(t, 30*time.Second, cfg.Forecast.RunTimeout())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("prefers url", func(t *testing.T) {
		c := DatabaseConfig{URL: "postgres://u:p@db:5432/inv", Host: "ignored"}
		assert.Equal(t, "postgres://u:p@db:5432/inv", c.DSN())
	})

	t.Run("builds key value string", func(t *testing.T) {
		c := DatabaseConfig{Host: "h", Port: "1", User: "u", Password: "p", DBName: "d", SSLMode: "disable"}
		assert.Equal(t, "host=h port=1 user=u password=p dbname=d sslmode=disable", c.DSN())
	})
}
