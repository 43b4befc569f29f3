package testutil

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/event-registration-api/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const sharedContainerName = "event-registration-test-db"

var (
	sharedOnce    sync.Once
	sharedInitErr error
	sharedPool    *pgxpool.Pool
	sharedDBURL   string
)

// NewPostgres returns a pool on a migrated, empty database. TEST_DATABASE_URL
// points at an existing server; otherwise a shared container is started. The
// test is skipped under -short or when no database can be reached.
func NewPostgres(t *testing.T) (*pgxpool.Pool, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Postgres integration test in -short mode")
	}

	sharedOnce.Do(initShared)
	if sharedInitErr != nil {
		t.Skipf("skipping Postgres integration test: %v", sharedInitErr)
	}

	TruncateAll(t, sharedPool)
	return sharedPool, sharedDBURL
}

func initShared() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		container, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("eventregistration"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			postgres.BasicWaitStrategies(),
			testcontainers.WithReuseByName(sharedContainerName),
		)
		if err != nil {
			sharedInitErr = err
			return
		}
		dbURL, err = container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			sharedInitErr = err
			return
		}
	}

	if err := database.MigrateUp(dbURL); err != nil {
		sharedInitErr = err
		return
	}

	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		sharedInitErr = err
		return
	}
	cfg.MaxConns = 32

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		sharedInitErr = err
		return
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		sharedInitErr = err
		return
	}

	sharedPool = pool
	sharedDBURL = dbURL
}

// TruncateAll empties every application table.
func TruncateAll(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := pool.Exec(ctx, `TRUNCATE registrations, events, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

// InsertUser writes a user row and returns its id.
func InsertUser(t *testing.T, pool *pgxpool.Pool, name, email string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (name, email) VALUES ($1, $2) RETURNING id`,
		name, email,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// InsertEvent writes an event row directly, so tests can create events that
// have already started.
func InsertEvent(t *testing.T, pool *pgxpool.Pool, title string, startsAt time.Time, location *string, capacity int) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(),
		`INSERT INTO events (title, starts_at, location, capacity) VALUES ($1, $2, $3, $4) RETURNING id`,
		title, startsAt, location, capacity,
	).Scan(&id)
	require.NoError(t, err)
	return id
}
