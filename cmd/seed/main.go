package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/config"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/ingest"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/migration"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/repository/postgres"
	"github.com/kalkulis/inventory-forecast/backend-go/pkg/logger"
)

type dbKey struct{}

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Database connection string",
		EnvVars: []string{"DATABASE_URL"},
	}
}

func initDB(c *cli.Context) error {
	cfg := config.Load().Database
	if url := c.String("db-url"); url != "" {
		cfg.URL = url
	}

	db, err := postgres.NewDB(&cfg)
	if err != nil {
		return err
	}

	if c.Bool("migrate") {
		m, err := migration.New(db.DB.DB, cfg.MigrationsDir)
		if err != nil {
			return err
		}
		if err := m.Up(); err != nil {
			return err
		}
	}

	// Store the database connection in the context
	c.Context = context.WithValue(c.Context, dbKey{}, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey{}).(*postgres.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func main() {
	if err := run(os.Args); err != nil {
		logger.Log.Error().Err(err).Msg("seed failed")
		os.Exit(1)
	}
}

// run executes the seeder; the After hook has closed the database by the time it returns.
func run(args []string) error {
	logger.Setup(config.Load().Log.Level, "debug")

	app := &cli.App{
		Name:  "seed",
		Usage: "Seed items and consumption history from CSV files",
		Flags: []cli.Flag{
			newDBURLFlag(),
			&cli.StringFlag{
				Name:     "items",
				Usage:    "Items CSV (name, category, current_stock, min_stock, unit)",
				Required: true,
				EnvVars:  []string{"SEED_ITEMS_FILE"},
			},
			&cli.StringFlag{
				Name:    "transactions",
				Usage:   "Transactions CSV (item_id or item_name, transaction_type, quantity, transaction_date)",
				EnvVars: []string{"SEED_TRANSACTIONS_FILE"},
			},
			&cli.BoolFlag{
				Name:  "migrate",
				Usage: "Apply migrations before seeding",
			},
		},
		Before: initDB,
		After:  closeDB,
		Action: runSeeder,
	}

	return app.Run(args)
}

func runSeeder(c *cli.Context) error {
	db, ok := c.Context.Value(dbKey{}).(*postgres.DB)
	if !ok {
		return fmt.Errorf("database connection not initialised")
	}

	loader := ingest.NewLoader(postgres.NewIngestRepository(db))
	stats, err := loader.LoadFiles(c.Context, c.String("items"), c.String("transactions"))
	if err != nil {
		return err
	}

	fmt.Printf("Seeded %d items and %d transactions (%d skipped)\n", stats.Items, stats.Transactions, stats.Skipped)
	return nil
}
