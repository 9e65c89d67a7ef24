// Package testdb runs PostgreSQL in a container for repository and end-to-end tests.
package testdb

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"tutoring-service/internal/db"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
)

type PostgresContainer struct {
	Container *postgres.PostgresContainer
	DB        *bun.DB
	DSN       string
}

var (
	shared     *PostgresContainer
	sharedErr  error
	sharedOnce sync.Once
)

// SetupSharedPostgres starts one database per test binary, or skips the test when no
// container runtime is reachable. Tables are shared, so callers must not run in parallel
// and should truncate what they touch:
//
//	pg := testdb.SetupSharedPostgres(t)
//	defer pg.Cleanup(t)
//	pg.RunMigrations(t, (*session.StudySession)(nil))
//
//	t.Run("Case", func(t *testing.T) {
//	    testdb.CleanupTables(t, pg.DB, "study_sessions")
//	})
func SetupSharedPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	sharedOnce.Do(func() {
		shared, sharedErr = start(context.Background())
	})
	require.NoError(t, sharedErr, "postgres container failed to start")
	return shared
}

func start(ctx context.Context) (*PostgresContainer, error) {
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("tutoring_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, err
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, fmt.Errorf("postgres connection string: %w", err)
	}

	bunDB, err := db.NewWithDSN(dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresContainer{Container: container, DB: bunDB, DSN: dsn}, nil
}

func (pc *PostgresContainer) Cleanup(t *testing.T) {
	t.Helper()
	if pc == nil {
		return
	}

	db.Close(pc.DB)
	if pc.Container != nil {
		if err := pc.Container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate postgres container: %s", err)
		}
	}
}

// RunMigrations creates the tables for models through the same code path as startup.
func (pc *PostgresContainer) RunMigrations(t *testing.T, models ...interface{}) {
	t.Helper()
	require.NoError(t, db.RunMigrations(context.Background(), pc.DB, models...), "failed to create tables")
}

// CleanupTables truncates tables and everything that references them.
func CleanupTables(t *testing.T, bunDB *bun.DB, tables ...string) {
	t.Helper()
	for _, table := range tables {
		_, err := bunDB.ExecContext(context.Background(), "TRUNCATE ? RESTART IDENTITY CASCADE", bun.Ident(table))
		require.NoError(t, err, "failed to truncate table: %s", table)
	}
}
