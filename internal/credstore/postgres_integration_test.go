//go:build integration

package credstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("fitgoalz"),
		postgrescontainer.WithUsername("fitgoalz"),
		postgrescontainer.WithPassword("fitgoalz"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

func TestPostgresStore(t *testing.T) {
	connStr := startPostgres(t)
	ctx := context.Background()

	s, err := NewPostgres(ctx, connStr, "default")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	exerciseStore(t, s)
}

func TestPostgresStore_RowLayout(t *testing.T) {
	connStr := startPostgres(t)
	ctx := context.Background()

	s, err := NewPostgres(ctx, connStr, "agent-7")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Set(ctx, TokenKey, "abc123"))

	// Read back through database/sql to check what other tools will see.
	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	defer db.Close()

	var scope, value string
	err = db.QueryRowContext(ctx,
		`SELECT scope, value FROM fitgoalz_credentials WHERE key = $1`, TokenKey,
	).Scan(&scope, &value)
	require.NoError(t, err)
	assert.Equal(t, "agent-7", scope)
	assert.Equal(t, "abc123", value)

	// Applying the schema twice is harmless.
	again, err := NewPostgres(ctx, connStr, "agent-7")
	require.NoError(t, err)
	defer again.Close()
	got, err := again.Get(ctx, TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "abc123", got)
}
