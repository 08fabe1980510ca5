package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/cache"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/config"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/migration"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/pipeline"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/repository/postgres"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/service"
	"github.com/kalkulis/inventory-forecast/backend-go/pkg/logger"
)

const dateLayout = "2006-01-02"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args)
	stop()

	if err != nil {
		logger.Log.Error().Err(err).Msg("forecast command failed")
		os.Exit(1)
	}
}

// run executes the CLI; every deferred close has run by the time it returns.
func run(ctx context.Context, args []string) error {
	cfg := config.Load()
	logger.Setup(cfg.Log.Level, "debug")

	app := newApp(cfg)
	return app.RunContext(ctx, args)
}

func newApp(cfg *config.Config) *cli.App {
	return &cli.App{
		Name:  "forecast",
		Usage: "Run and inspect inventory consumption forecasts",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Forecast every item and store the batch as the latest generation",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "reference-date",
						Usage: "Reference date (YYYY-MM-DD); defaults to now",
					},
					&cli.IntFlag{
						Name:    "workers",
						Usage:   "Items forecast concurrently",
						Value:   cfg.Forecast.Workers,
						EnvVars: []string{"FORECAST_WORKERS"},
					},
					&cli.StringFlag{
						Name:    "failure-policy",
						Usage:   "What to do when one item fails: abort or skip",
						Value:   cfg.Forecast.FailurePolicy,
						EnvVars: []string{"FORECAST_FAILURE_POLICY"},
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Forecast from CSV files in memory without touching the database",
					},
					&cli.StringFlag{
						Name:  "items",
						Usage: "Items CSV for --dry-run",
					},
					&cli.StringFlag{
						Name:  "transactions",
						Usage: "Transactions CSV for --dry-run",
					},
				},
				Action: func(c *cli.Context) error { return runForecast(c, cfg) },
			},
			{
				Name:  "latest",
				Usage: "Print the latest forecast batch",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum records to print", Value: 50},
				},
				Action: func(c *cli.Context) error { return printLatest(c, cfg) },
			},
			{
				Name:  "purge",
				Usage: "Delete forecast generations older than a date; the latest is always kept",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "before", Usage: "Cutoff date (YYYY-MM-DD)", Required: true},
				},
				Action: func(c *cli.Context) error { return purge(c, cfg) },
			},
			{
				Name:  "migrate",
				Usage: "Apply database migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "migrations-dir",
						Usage:   "Directory containing SQL migrations",
						Value:   cfg.Database.MigrationsDir,
						EnvVars: []string{"MIGRATIONS_DIR"},
					},
					&cli.BoolFlag{Name: "down", Usage: "Roll back all migrations"},
				},
				Action: func(c *cli.Context) error { return migrate(c, cfg) },
			},
		},
	}
}

func runnerConfig(c *cli.Context, cfg *config.Config) (pipeline.Config, error) {
	fc := cfg.Forecast
	fc.Workers = c.Int("workers")
	fc.FailurePolicy = c.String("failure-policy")
	return pipeline.ConfigFrom(fc)
}

func parseDateFlag(c *cli.Context, name string) (time.Time, error) {
	raw := c.String(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: want YYYY-MM-DD", name, raw)
	}
	return t, nil
}

func runForecast(c *cli.Context, cfg *config.Config) error {
	reference, err := parseDateFlag(c, "reference-date")
	if err != nil {
		return err
	}
	runnerCfg, err := runnerConfig(c, cfg)
	if err != nil {
		return err
	}

	var svc *service.ForecastService
	if c.Bool("dry-run") {
		svc, err = newDryRunService(c.Context, runnerCfg, c.String("items"), c.String("transactions"))
		if err != nil {
			return err
		}
	} else {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		var closeRedis func()
		svc, closeRedis = newDatabaseService(db, cfg, runnerCfg)
		defer closeRedis()
	}

	result, err := svc.RunForecast(c.Context, pipeline.RunOptions{ReferenceDate: reference})
	if err != nil {
		return err
	}

	printResult(os.Stdout, result)
	return nil
}

func printLatest(c *cli.Context, cfg *config.Config) error {
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := service.NewForecastService(nil, postgres.NewForecastRepository(db), postgres.NewRunRepository(db), cache.NewNoopForecastCache())

	filter := latestFilter(c.Int("limit"))
	batch, err := svc.GetLatest(c.Context, filter)
	if err != nil {
		return err
	}

	printBatch(os.Stdout, batch)
	return nil
}

func purge(c *cli.Context, cfg *config.Config) error {
	before, err := parseDateFlag(c, "before")
	if err != nil {
		return err
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := service.NewForecastService(nil, postgres.NewForecastRepository(db), nil, cache.NewNoopForecastCache())
	n, err := svc.PurgeBefore(c.Context, before)
	if err != nil {
		return err
	}

	fmt.Printf("Purged %d forecast records older than %s\n", n, before.Format(dateLayout))
	return nil
}

func migrate(c *cli.Context, cfg *config.Config) error {
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return err
	}

	m, err := migration.New(db.DB.DB, c.String("migrations-dir"))
	if err != nil {
		_ = db.Close()
		return err
	}
	// closing the migrator also closes db
	defer m.Close()

	if c.Bool("down") {
		return m.Down()
	}
	return m.Up()
}
