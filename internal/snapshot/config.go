package snapshot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bloops-games/launched/internal/database"
)

const (
	DriverFile = "file"
	DriverBolt = "bolt"
)

type Config struct {
	Driver string `envconfig:"DRIVER" default:"file" validate:"in:file,bolt"`
	// Path of the JSON document, used by the file driver
	Path     string          `envconfig:"DOCUMENT" default:"user_stats.json"`
	Compress bool            `envconfig:"COMPRESS" default:"false"`
	Bolt     database.Config `envconfig:"BOLT"`
}

// SavedAtReader is implemented by stores that record the time of the last write.
type SavedAtReader interface {
	SavedAt(ctx context.Context) (time.Time, error)
}

// Open builds the store the config names. Closing the returned store
// releases everything Open acquired.
func Open(ctx context.Context, config *Config) (Store, error) {
	compressor, err := NewCompressor(config.Compress)
	if err != nil {
		return nil, fmt.Errorf("snapshot compressor: %w", err)
	}

	switch strings.ToLower(config.Driver) {
	case "", DriverFile:
		if config.Path == "" {
			compressor.Close()
			return nil, fmt.Errorf("snapshot file driver: empty path")
		}
		return NewFileStore(config.Path, compressor), nil
	case DriverBolt:
		db, err := database.NewFromEnv(ctx, &config.Bolt)
		if err != nil {
			compressor.Close()
			return nil, fmt.Errorf("snapshot bolt driver: %w", err)
		}
		return &ownedBoltStore{BoltStore: NewBoltStore(db, compressor), ctx: ctx}, nil
	default:
		compressor.Close()
		return nil, fmt.Errorf("unknown snapshot driver %q", config.Driver)
	}
}

type ownedBoltStore struct {
	*BoltStore
	ctx context.Context
}

func (s *ownedBoltStore) Close() error {
	if err := s.BoltStore.Close(); err != nil {
		return err
	}
	return s.db.Close(s.ctx)
}
