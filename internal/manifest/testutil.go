package manifest

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// NewTestStore creates an in-memory manifest for testing. The connection
// pool is pinned to one connection so every query sees the same database.
// Cleanup is registered with t.Cleanup().
func NewTestStore(t testing.TB) *Store {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s, err := NewStore(db)
	require.NoError(t, err)
	return s
}
