// Package testutil starts throwaway MySQL and Redis containers for
// integration tests.  Tests are skipped when docker is unavailable.
package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/redis/go-redis/v9"
	mysqlmodule "github.com/testcontainers/testcontainers-go/modules/mysql"
	redismodule "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/iliyamo/qnova-vr-booking/internal/database"
)

// SetupMySQLContainer returns a migrated database on a fresh MySQL 8
// container.
func SetupMySQLContainer(ctx context.Context, t *testing.T) (*sql.DB, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping mysql container in -short mode")
	}

	defer func() {
		if r := recover(); r != nil {
			t.Skipf("failed to start mysql container: %v", r)
		}
	}()

	container, err := mysqlmodule.Run(ctx, "mysql:8.0",
		mysqlmodule.WithDatabase("qnova"),
		mysqlmodule.WithUsername("qnova"),
		mysqlmodule.WithPassword("qnova"),
	)
	if err != nil {
		t.Skipf("failed to start mysql container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "parseTime=true", "loc=UTC", "clientFoundRows=true", "charset=utf8mb4")
	if err != nil {
		t.Skipf("failed to get mysql dsn: %v", err)
	}
	db, err := database.OpenDSN(dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("open mysql: %v", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("migrate: %v", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close mysql: %v", err)
		}
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate mysql container: %v", err)
		}
	}
	return db, cleanup
}

// SetupRedisContainer returns a client for a fresh Redis container.
func SetupRedisContainer(ctx context.Context, t *testing.T) (*redis.Client, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container in -short mode")
	}

	defer func() {
		if r := recover(); r != nil {
			t.Skipf("failed to start redis container: %v", r)
		}
	}()

	container, err := redismodule.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Skipf("failed to start redis container: %v", err)
	}

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Skipf("failed to get redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})

	cleanup := func() {
		if err := client.Close(); err != nil {
			t.Logf("failed to close redis client: %v", err)
		}
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate redis container: %v", err)
		}
	}
	return client, cleanup
}
