package snapshot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bloops-games/launched/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name   string
		config Config
	}{
		{
			name:   "file",
			config: Config{Driver: DriverFile, Path: filepath.Join(dir, "stats.json")},
		},
		{
			name:   "compressed file",
			config: Config{Driver: DriverFile, Path: filepath.Join(dir, "stats.json.zst"), Compress: true},
		},
		{
			name: "bolt",
			config: Config{Driver: DriverBolt, Bolt: database.Config{
				FilePath:    filepath.Join(dir, "launched.db"),
				OpenTimeout: time.Second,
			}},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			s, err := Open(ctx, &tc.config)
			require.NoError(t, err)

			require.NoError(t, s.Save(ctx, doc))
			got, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, doc, got)
			require.NoError(t, s.Close())
		})
	}
}

func TestOpen_BoltSavedAt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := Open(ctx, &Config{Driver: DriverBolt, Bolt: database.Config{
		FilePath:    filepath.Join(t.TempDir(), "launched.db"),
		OpenTimeout: time.Second,
	}})
	require.NoError(t, err)
	defer s.Close()

	r, ok := s.(SavedAtReader)
	require.True(t, ok)
	require.NoError(t, s.Save(ctx, doc))

	ts, err := r.SavedAt(ctx)
	require.NoError(t, err)
	assert.False(t, ts.IsZero())
}

func TestOpen_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := Open(ctx, &Config{Driver: "redis"})
	assert.Error(t, err)

	_, err = Open(ctx, &Config{Driver: DriverFile})
	assert.Error(t, err)
}
