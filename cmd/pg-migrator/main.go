package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pressly/goose/v3"

	"thirdcoast.systems/duckflix/internal/application"
	"thirdcoast.systems/duckflix/internal/config"
	"thirdcoast.systems/duckflix/internal/db"
)

func main() {
	to := flag.Int64("to", goose.MaxVersion, "schema version to migrate to; lower than current rolls back")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := migrate(ctx, *to); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("migrations complete")
}

func migrate(ctx context.Context, to int64) error {
	conf, err := config.LoadConfig(ctx)
	if err != nil {
		return err
	}
	application.InitLogger(os.Stdout, conf.LogLevel)

	pool, err := application.OpenDBPoolWithRetry(ctx, *conf)
	if err != nil {
		return err
	}
	defer pool.Close()

	dbc, err := db.NewDatabaseConnection(ctx, pool)
	if err != nil {
		return err
	}
	return dbc.MigrateTo(ctx, to)
}
