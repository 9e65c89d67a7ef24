package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"time"

	"tutoring-service/internal/config"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 10
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = time.Minute
)

// New opens the connection pool. cfg.DSN, when set, replaces the discrete connection fields.
func New(cfg config.DatabaseConfig) (*bun.DB, error) {
	var connector *pgdriver.Connector
	if cfg.DSN != "" {
		connector = pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN))
	} else {
		opts := []pgdriver.Option{
			pgdriver.WithAddr(net.JoinHostPort(cfg.Host, cfg.Port)),
			pgdriver.WithUser(cfg.User),
			pgdriver.WithPassword(cfg.Password),
			pgdriver.WithDatabase(cfg.DBName),
		}
		if cfg.SSLMode == "" || cfg.SSLMode == "disable" {
			opts = append(opts, pgdriver.WithInsecure(true))
		}
		connector = pgdriver.NewConnector(opts...)
	}

	bunDB, err := open(connector)
	if err != nil {
		return nil, err
	}

	pool := bunDB.DB
	pool.SetMaxOpenConns(orDefault(cfg.MaxOpenConns, defaultMaxOpenConns))
	pool.SetMaxIdleConns(orDefault(cfg.MaxIdleConns, defaultMaxIdleConns))
	pool.SetConnMaxLifetime(secondsOr(cfg.ConnMaxLifetime, defaultConnMaxLifetime))
	pool.SetConnMaxIdleTime(secondsOr(cfg.ConnMaxIdleTime, defaultConnMaxIdleTime))

	slog.Info("database pool configured", "max_open_conns", pool.Stats().MaxOpenConnections)
	return bunDB, nil
}

// NewWithDSN connects with default pool settings. Tests use it against containers.
func NewWithDSN(dsn string) (*bun.DB, error) {
	return open(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
}

func open(connector *pgdriver.Connector) (*bun.DB, error) {
	bunDB := bun.NewDB(sql.OpenDB(connector), pgdialect.New())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := bunDB.PingContext(ctx); err != nil {
		bunDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("database connected successfully")
	return bunDB, nil
}

func Close(bunDB *bun.DB) {
	if bunDB != nil {
		bunDB.Close()
	}
}

// RunMigrations creates the tables of models in order. Foreign keys are declared through
// bun.BeforeCreateTableHook, so parents must come before children.
func RunMigrations(ctx context.Context, idb bun.IDB, models ...interface{}) error {
	for _, model := range models {
		if _, err := idb.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for model %T: %w", model, err)
		}
	}
	slog.Info("database migrations completed successfully", "tables", len(models))
	return nil
}

func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func secondsOr(v int, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return time.Duration(v) * time.Second
}
