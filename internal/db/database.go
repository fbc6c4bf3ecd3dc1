package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const migrationsDir = "sql/migrations"

//go:embed sql/migrations/*.sql
var embedMigrations embed.FS

// DatabaseConnection is the process-wide Postgres pool.
type DatabaseConnection struct {
	*pgxpool.Pool
}

// NewDatabaseConnection wraps a pool that OpenDBPoolWithRetry has already
// reached. It fails fast if the server went away in between.
func NewDatabaseConnection(ctx context.Context, pool *pgxpool.Pool) (*DatabaseConnection, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &DatabaseConnection{pool}, nil
}

func (db *DatabaseConnection) Close() {
	db.Pool.Close()
}

func (db *DatabaseConnection) Queries(ctx context.Context) *Queries {
	return New(db)
}

// InTx runs fn inside a transaction, committing when fn succeeds and rolling
// back otherwise.
func (db *DatabaseConnection) InTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(New(tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Migrate applies every embedded migration.
func (db *DatabaseConnection) Migrate(ctx context.Context) error {
	return db.MigrateTo(ctx, goose.MaxVersion)
}

// MigrateTo moves the schema to version, applying or rolling back migrations
// as needed.
func (db *DatabaseConnection) MigrateTo(ctx context.Context, version int64) error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	current, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	slog.Info("schema version", "current", current, "target", version)

	if version < current {
		return goose.DownToContext(ctx, sqlDB, migrationsDir, version)
	}
	return goose.UpToContext(ctx, sqlDB, migrationsDir, version)
}
