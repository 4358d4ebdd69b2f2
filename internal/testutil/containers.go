//go:build integration

// Package testutil starts the backing services used by integration tests.
//
// REDIS_ADDR and DATABASE_URL point the tests at running services. When they
// are unset a container is started, and the test is skipped if Docker is not
// available.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/store/migrations"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

const (
	redisImage    = "redis/redis-stack-server:latest"
	postgresImage = "postgres:16-alpine"
)

// Redis returns a client for a Redis Stack server (RediSearch and
// RedisTimeSeries loaded).
func Redis(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()
	addr := os.Getenv("REDIS_ADDR")

	if addr == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)

		container, err := tcredis.Run(ctx, redisImage)
		if err != nil {
			t.Skipf("redis container not available: %v", err)
		}

		t.Cleanup(func() { _ = container.Terminate(context.Background()) })

		addr, err = container.Endpoint(ctx, "")
		if err != nil {
			t.Fatalf("failed to get redis endpoint: %v", err)
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Protocol: 2,
	})
	t.Cleanup(func() { _ = client.Close() })

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	return client
}

// Postgres returns a pool on a migrated database.
func Postgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()
	dsn := os.Getenv("DATABASE_URL")

	if dsn == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)

		container, err := tcpostgres.Run(ctx, postgresImage,
			tcpostgres.WithDatabase("shortlink"),
			tcpostgres.WithUsername("shortlink"),
			tcpostgres.WithPassword("shortlink"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		if err != nil {
			t.Skipf("postgres container not available: %v", err)
		}

		t.Cleanup(func() { _ = container.Terminate(context.Background()) })

		dsn, err = container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			t.Fatalf("failed to get postgres connection string: %v", err)
		}
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}

	t.Cleanup(pool.Close)

	if err := pool.Ping(ctx); err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}

	migrator, err := migrations.New(dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open migrations: %v", err)
	}

	defer migrator.Close()

	if err := migrator.Up(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return pool
}
