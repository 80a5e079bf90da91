package snapshot

import (
	"context"
	"fmt"
)

var ErrPersistence = fmt.Errorf("persistence")

// Store keeps the latest registry document. Load returns nil data when
// nothing has been saved yet.
type Store interface {
	Save(ctx context.Context, data []byte) error
	Load(ctx context.Context) ([]byte, error)
	Close() error
}

func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
