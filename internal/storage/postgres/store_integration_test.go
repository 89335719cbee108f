//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/jwulff/bplog-go/internal/storage"
	"github.com/jwulff/bplog-go/internal/storage/storetest"
)

func TestStoreConformance(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("bplog"),
		postgrescontainer.WithUsername("bplog"),
		postgrescontainer.WithPassword("bplog"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, waitForDatabase(ctx, pool))

	storetest.Run(t, func(t *testing.T, opts ...storage.Option) storage.Store {
		store := NewStore(pool, opts...)
		require.NoError(t, store.Migrate(ctx))
		_, err := pool.Exec(ctx, `TRUNCATE readings, settings RESTART IDENTITY`)
		require.NoError(t, err)
		return store
	})
}

func waitForDatabase(ctx context.Context, pool *pgxpool.Pool) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		err := pool.Ping(ctx)
		if err == nil || time.Now().After(deadline) {
			return err
		}
		time.Sleep(500 * time.Millisecond)
	}
}
