package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"card-manager/internal/repository"
)

func newTestManager(t *testing.T) (*Manager, *repository.MemorySessionStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := repository.Open(context.Background(), repository.SQLite, ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sessions := repository.NewMemorySessionStore()
	return NewManager(repository.NewStore(db, repository.SQLite, logger), sessions, logger), sessions
}
