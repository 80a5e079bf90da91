package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bloops-games/launched/internal/logging"
	bolt "go.etcd.io/bbolt"
)

type Config struct {
	FilePath string `envconfig:"FILE_PATH" default:"launched.db" validate:"required"`
	// Wait for the file lock at most this long
	OpenTimeout time.Duration `envconfig:"OPEN_TIMEOUT" default:"5s"`
	// Open with a shared lock, writes fail
	ReadOnly bool `envconfig:"READ_ONLY" default:"false"`
}

type DB struct {
	DB   *bolt.DB
	path string
}

// NewFromEnv opens the bolt file, creating its directory when writable.
func NewFromEnv(ctx context.Context, config *Config) (*DB, error) {
	logger := logging.FromContext(ctx).Named("database")
	logger.Infof("opening bolt database %s", config.FilePath)

	if !config.ReadOnly {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := bolt.Open(config.FilePath, 0600, &bolt.Options{
		Timeout:  config.OpenTimeout,
		ReadOnly: config.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("opening bolt database %s: %w", config.FilePath, err)
	}

	return &DB{DB: db, path: config.FilePath}, nil
}

func (db *DB) Close(ctx context.Context) error {
	logging.FromContext(ctx).Named("database").Infof("closing bolt database %s", db.path)

	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing bolt database: %w", err)
	}

	return nil
}
