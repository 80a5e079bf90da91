package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bloops-games/launched/internal/codec"
	"github.com/bloops-games/launched/internal/database"
	"github.com/bloops-games/launched/internal/gamestat"
	"github.com/bloops-games/launched/internal/snapshot"
	"github.com/bloops-games/launched/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{
  "42": {
    "type": "UserStatsProfile",
    "most_launched": {"type": "GameRecord", "name": "Chess"},
    "least_launched": {"type": "GameRecord", "name": "Chess"},
    "last_launched": {"type": "GameRecord", "name": "Chess"},
    "games": {
      "Chess": {"type": "GameRecord", "name": "Chess", "first_seen": "2021-03-14 20:00:00", "last_seen": "2021-03-14 21:00:00", "launch_count": 2, "active_days": 1, "marked": false},
      "Go": {"type": "Player", "name": "Go"}
    }
  },
  "7": {"type": "UserStatsProfile", "games": {}}
}`

func TestInspect(t *testing.T) {
	t.Parallel()

	store := &testutil.MemStore{Data: []byte(sample)}
	var out bytes.Buffer
	require.NoError(t, inspect(context.Background(), &out, store, "trigger"))

	s := out.String()
	assert.Contains(t, s, "USER")
	assert.Contains(t, s, "Chess")
	assert.Contains(t, s, "2 users, 1 skipped entries")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("7 ")), bytes.Index(out.Bytes(), []byte("42 ")))
}

func TestInspect_Errors(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	assert.Error(t, inspect(context.Background(), &out, &testutil.MemStore{Data: []byte(sample)}, "random"))
	assert.Error(t, inspect(context.Background(), &out, &testutil.MemStore{Data: []byte("[1]")}, "trigger"))
}

func TestMigrate_FileToBolt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	src, err := snapshot.Open(ctx, &snapshot.Config{Driver: snapshot.DriverFile, Path: filepath.Join(dir, "stats.json")})
	require.NoError(t, err)
	defer src.Close()
	require.NoError(t, src.Save(ctx, []byte(sample)))

	dst, err := snapshot.Open(ctx, &snapshot.Config{
		Driver:   snapshot.DriverBolt,
		Compress: true,
		Bolt:     database.Config{FilePath: filepath.Join(dir, "launched.db"), OpenTimeout: time.Second},
	})
	require.NoError(t, err)
	defer dst.Close()

	n, err := migrate(ctx, src, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := dst.Load(ctx)
	require.NoError(t, err)

	res, err := codec.Decode(data, gamestat.SeedFromTrigger)
	require.NoError(t, err)
	assert.Empty(t, res.Skipped)
	require.Contains(t, res.Profiles, int64(42))
	assert.Equal(t, 1, res.Profiles[42].Len())
}

func TestMigrate_RefusesCorruptSource(t *testing.T) {
	t.Parallel()

	dst := &testutil.MemStore{}
	_, err := migrate(context.Background(), &testutil.MemStore{Data: []byte("not json")}, dst)
	assert.Error(t, err)
	assert.Equal(t, 0, dst.SaveCount())
}
