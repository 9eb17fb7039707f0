package db_test

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"stitch/internal/db"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	name := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	database, err := sql.Open("sqlite", name)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestMigrate(t *testing.T) {
	database := openMemoryDB(t)

	require.NoError(t, db.Migrate(database))

	// Idempotent
	require.NoError(t, db.Migrate(database))

	var count int
	err := database.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('fragments') WHERE name = 'fetch_count'`).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	_, err = database.Exec(`INSERT INTO fragments (id, key, url, body, fetched_at, updated_at) VALUES (1, 'k', 'u', 'b', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`)
	require.NoError(t, err)

	var fetchCount int
	err = database.QueryRow(`SELECT fetch_count FROM fragments WHERE id = 1`).Scan(&fetchCount)
	require.NoError(t, err)
	require.Equal(t, 0, fetchCount)
}

func TestMigrate_UniqueKey(t *testing.T) {
	database := openMemoryDB(t)
	require.NoError(t, db.Migrate(database))

	_, err := database.Exec(`INSERT INTO fragments (id, key, url, body, fetched_at, updated_at) VALUES (1, 'k', 'u', 'b', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`)
	require.NoError(t, err)
	_, err = database.Exec(`INSERT INTO fragments (id, key, url, body, fetched_at, updated_at) VALUES (2, 'k', 'u2', 'b2', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`)
	require.Error(t, err)
}
