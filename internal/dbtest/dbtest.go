// Package dbtest starts a throwaway PostgreSQL for integration tests and
// applies the schema migrations to it.
package dbtest

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/MikeMC777/tienda-ecom/internal/db"
)

const image = "postgres:16-alpine"

// StartPostgres runs a migrated database container for the lifetime of t and
// returns a pool connected to it. Skipped under -short.
func StartPostgres(t testing.TB) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test: needs docker")
	}

	ctx := context.Background()

	ctr, err := postgres.Run(ctx, image,
		postgres.WithDatabase("tienda"),
		postgres.WithUsername("tienda"),
		postgres.WithPassword("tienda"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, db.Migrate(dsn, db.Up))

	pool, err := db.NewPool(ctx, dsn, db.PoolOptions{MaxConns: 16})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

// Truncate empties every table and resets id sequences.
func Truncate(t testing.TB, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`TRUNCATE TABLE order_items, orders, products, app_users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}
