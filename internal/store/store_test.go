package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "skema.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := openTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skema.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Record(context.Background(), "m-1", "first", 1, "sha256:aa"))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	entries, err := s2.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "m-1", entries[0].ID)
}

func TestStatusOf_Lifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	status, err := s.StatusOf(ctx, "m-1", "sha256:aa")
	require.NoError(t, err)
	assert.Equal(t, StatusUnapplied, status)

	require.NoError(t, s.Record(ctx, "m-1", "create users", 1, "sha256:aa"))

	status, err = s.StatusOf(ctx, "m-1", "sha256:aa")
	require.NoError(t, err)
	assert.Equal(t, StatusInSync, status)

	// The file drifted from what was recorded.
	status, err = s.StatusOf(ctx, "m-1", "sha256:bb")
	require.NoError(t, err)
	assert.Equal(t, StatusChanged, status)

	// Re-recording the new fingerprint brings it back in sync.
	require.NoError(t, s.Record(ctx, "m-1", "create users", 1, "sha256:bb"))
	status, err = s.StatusOf(ctx, "m-1", "sha256:bb")
	require.NoError(t, err)
	assert.Equal(t, StatusInSync, status)
}

func TestList_OrderedBySeq(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "m-3", "third", 3, "sha256:cc"))
	require.NoError(t, s.Record(ctx, "m-1", "first", 1, "sha256:aa"))
	require.NoError(t, s.Record(ctx, "m-2", "second", 2, "sha256:bb"))

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"m-1", "m-2", "m-3"}, []string{entries[0].ID, entries[1].ID, entries[2].ID})
	for _, e := range entries {
		assert.NotEmpty(t, e.RecordedAt)
	}
}

func TestList_Empty(t *testing.T) {
	s := openTestStore(t)

	entries, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
