package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Forecast ForecastConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
	MetricsEnabled bool
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConcurrentTx int64
	MigrationsDir   string
}

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	ForecastTTLSecs  int
	RunLockTTLSecs   int
	RunLockKeyPrefix string
}

// ForecastConfig drives the batch runner and its optional daily trigger.
type ForecastConfig struct {
	LookbackDays      int
	Workers           int
	FailurePolicy     string
	RunTimeoutSeconds int
	ScheduleEnabled   bool
	ScheduleHour      int
	ScheduleMinute    int
}

type LogConfig struct {
	Level string
}

// RunTimeout returns the wall-clock budget of a single forecast run.
func (c ForecastConfig) RunTimeout() time.Duration {
	if c.RunTimeoutSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.RunTimeoutSeconds) * time.Second
}

// DSN returns DATABASE_URL when set, otherwise a key/value connection string built from the parts.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		instance = build(viper.GetViper())
	})

	return instance
}

func build(v *viper.Viper) *Config {
	setDefaults(v)
	v.AutomaticEnv()

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: splitList(v.GetStringSlice("SERVER_ALLOWED_ORIGINS")),
			MetricsEnabled: v.GetBool("METRICS_ENABLED"),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("DATABASE_URL"),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetString("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			MaxConcurrentTx: v.GetInt64("DB_MAX_CONCURRENT_TX"),
			MigrationsDir:   v.GetString("MIGRATIONS_DIR"),
		},
		Cache: CacheConfig{
			Enabled:          v.GetBool("CACHE_ENABLED"),
			RedisURL:         v.GetString("REDIS_URL"),
			RedisHost:        v.GetString("REDIS_HOST"),
			RedisPort:        v.GetString("REDIS_PORT"),
			RedisPassword:    v.GetString("REDIS_PASSWORD"),
			RedisDB:          v.GetInt("REDIS_DB"),
			ForecastTTLSecs:  v.GetInt("CACHE_FORECAST_TTL_SECONDS"),
			RunLockTTLSecs:   v.GetInt("FORECAST_LOCK_TTL_SECONDS"),
			RunLockKeyPrefix: v.GetString("FORECAST_LOCK_KEY_PREFIX"),
		},
		Forecast: ForecastConfig{
			LookbackDays:      v.GetInt("FORECAST_LOOKBACK_DAYS"),
			Workers:           v.GetInt("FORECAST_WORKERS"),
			FailurePolicy:     strings.ToLower(strings.TrimSpace(v.GetString("FORECAST_FAILURE_POLICY"))),
			RunTimeoutSeconds: v.GetInt("FORECAST_RUN_TIMEOUT_SECONDS"),
			ScheduleEnabled:   v.GetBool("FORECAST_SCHEDULE_ENABLED"),
			ScheduleHour:      v.GetInt("FORECAST_SCHEDULE_HOUR"),
			ScheduleMinute:    v.GetInt("FORECAST_SCHEDULE_MINUTE"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 330)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"})
	v.SetDefault("METRICS_ENABLED", true)

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "inventory")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_MAX_CONCURRENT_TX", 10)
	v.SetDefault("MIGRATIONS_DIR", "./scripts/migrations")

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_FORECAST_TTL_SECONDS", 300)
	v.SetDefault("FORECAST_LOCK_TTL_SECONDS", 600)
	v.SetDefault("FORECAST_LOCK_KEY_PREFIX", "lock:forecast")

	v.SetDefault("FORECAST_LOOKBACK_DAYS", 365)
	v.SetDefault("FORECAST_WORKERS", 4)
	v.SetDefault("FORECAST_FAILURE_POLICY", "abort")
	v.SetDefault("FORECAST_RUN_TIMEOUT_SECONDS", 300)
	v.SetDefault("FORECAST_SCHEDULE_ENABLED", false)
	v.SetDefault("FORECAST_SCHEDULE_HOUR", 2)
	v.SetDefault("FORECAST_SCHEDULE_MINUTE", 0)

	v.SetDefault("LOG_LEVEL", "info")
}

// splitList flattens comma separated env values such as "a,b" into separate entries.
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}
