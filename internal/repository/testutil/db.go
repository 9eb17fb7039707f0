package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"stitch/internal/db"
	"stitch/internal/hashutil"
	"stitch/internal/model"
	"stitch/pkg/snowflake"

	_ "modernc.org/sqlite"
)

// snowflakeOnce makes sure the ID node is initialized once across parallel tests.
var snowflakeOnce sync.Once

// NewTestDB creates an in-memory SQLite database and runs all migrations.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	snowflakeOnce.Do(func() {
		if err := snowflake.Init(0); err != nil {
			// t.Fatalf is unusable inside sync.Once, so panic instead
			panic("failed to initialize snowflake: " + err.Error())
		}
	})

	// Shared-cache mode so the in-memory database survives multiple
	// connections; unique name per test to avoid cross-test collisions.
	dbName := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", t.Name(), time.Now().UnixNano())
	database, err := sql.Open("sqlite", dbName)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Migrate(database); err != nil {
		database.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		database.Close()
	})

	return database
}

// SeedFragment inserts a cached fragment row and returns the stored record.
func SeedFragment(t *testing.T, database *sql.DB, fragment model.CachedFragment) model.CachedFragment {
	t.Helper()

	if fragment.ID == 0 {
		fragment.ID = snowflake.NextID()
	}
	if fragment.Key == "" {
		fragment.Key = hashutil.SHA256Hex(fragment.URL)
	}
	now := time.Now().UTC()
	if fragment.FetchedAt.IsZero() {
		fragment.FetchedAt = now
	}
	if fragment.UpdatedAt.IsZero() {
		fragment.UpdatedAt = now
	}

	_, err := database.ExecContext(
		context.Background(),
		`INSERT INTO fragments (id, key, url, etag, last_modified, body, fetched_at, updated_at, fetch_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fragment.ID, fragment.Key, fragment.URL, ptrVal(fragment.ETag), ptrVal(fragment.LastModified),
		fragment.Body, fragment.FetchedAt.Format(time.RFC3339Nano), fragment.UpdatedAt.Format(time.RFC3339Nano),
		fragment.FetchCount,
	)
	if err != nil {
		t.Fatalf("failed to seed fragment: %v", err)
	}

	return fragment
}

// ptrVal converts a pointer to interface{}; nil pointers stay nil.
func ptrVal[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
