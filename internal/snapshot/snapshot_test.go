package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bloops-games/launched/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var doc = []byte(`{"1": {"type": "UserStatsProfile", "games": {}}}`)

func newZstd(t *testing.T) Compressor {
	t.Helper()

	c, err := NewCompressor(true)
	require.NoError(t, err)
	return c
}

func TestCompressor(t *testing.T) {
	t.Parallel()

	z := newZstd(t)
	defer z.Close()

	packed, err := z.Compress(doc)
	require.NoError(t, err)
	assert.Equal(t, zstdMagic, packed[:4])

	plain, err := z.Decompress(packed)
	require.NoError(t, err)
	assert.Equal(t, doc, plain)

	plain, err = z.Decompress(doc)
	require.NoError(t, err)
	assert.Equal(t, doc, plain)

	plain, err = Identity{}.Decompress(packed)
	require.NoError(t, err)
	assert.Equal(t, doc, plain)
}

func TestFileStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "launched.json")
	s := NewFileStore(path, nil)
	defer s.Close()

	data, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, s.Save(ctx, doc))
	require.NoError(t, s.Save(ctx, doc))

	data, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc, data)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_EnablingCompression(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "launched.json")

	require.NoError(t, NewFileStore(path, Identity{}).Save(ctx, doc))

	z := NewFileStore(path, newZstd(t))
	defer z.Close()

	data, err := z.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc, data)

	require.NoError(t, z.Save(ctx, doc))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, zstdMagic, raw[:4])
}

func TestFileStore_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	s := NewFileStore(filepath.Join(blocker, "launched.json"), nil)
	assert.ErrorIs(t, s.Save(ctx, doc), ErrPersistence)

	_, err := NewFileStore(dir, nil).Load(ctx)
	assert.ErrorIs(t, err, ErrPersistence)
}

func newDB(t *testing.T) *database.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.NewFromEnv(ctx, &database.Config{
		FilePath:    filepath.Join(t.TempDir(), "launched.db"),
		OpenTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close(ctx)
	})

	return db
}

func TestBoltStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewBoltStore(newDB(t), newZstd(t))
	defer s.Close()

	data, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)

	ts, err := s.SavedAt(ctx)
	require.NoError(t, err)
	assert.True(t, ts.IsZero())

	before := time.Now().Add(-time.Second)
	require.NoError(t, s.Save(ctx, doc))

	data, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc, data)

	ts, err = s.SavedAt(ctx)
	require.NoError(t, err)
	assert.True(t, ts.After(before))
}
