package repository

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(context.Background(), SQLite, ":memory:", discardLogger())
	require.NoError(t, err, "failed to create test database")
	t.Cleanup(func() { db.Close() })
	return NewStore(db, SQLite, discardLogger())
}
