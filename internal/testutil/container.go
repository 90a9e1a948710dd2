package testutil

import (
	"context"
	"database/sql"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresImage is the image started by SetupContainerDB.
const PostgresImage = "postgres:16-alpine"

// SetupContainerDB starts a disposable PostgreSQL container, migrates it and
// registers cleanup that closes the pool and terminates the container.
func SetupContainerDB(t TestingTB) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithDatabase("creditfeed_test"),
		postgres.WithUsername("creditfeed"),
		postgres.WithPassword("creditfeed"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		skipOrFail(t, requireDB(), "Postgres container not available:", err)
		return nil
	}
	t.Cleanup(func() {
		if terr := container.Terminate(context.Background()); terr != nil {
			t.Logf("warning: failed to terminate postgres container: %v", terr)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal("Failed to read container connection string:", err)
	}

	db := openMigrated(t, connStr)
	t.Cleanup(func() {
		if cerr := db.Close(); cerr != nil {
			t.Logf("warning: failed to close container db: %v", cerr)
		}
	})
	return db
}
