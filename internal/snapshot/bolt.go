package snapshot

import (
	"context"
	"time"

	"github.com/bloops-games/launched/internal/byteutil"
	"github.com/bloops-games/launched/internal/database"
	"github.com/bloops-games/launched/internal/logging"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketName  = []byte("snapshots")
	registryKey = []byte("registry")
	savedAtKey  = []byte("saved_at")
)

var _ Store = (*BoltStore)(nil)

// BoltStore keeps the document under one key of a bbolt bucket.
type BoltStore struct {
	db         *database.DB
	compressor Compressor
}

func NewBoltStore(db *database.DB, compressor Compressor) *BoltStore {
	if compressor == nil {
		compressor = Identity{}
	}
	return &BoltStore{db: db, compressor: compressor}
}

func (s *BoltStore) Save(ctx context.Context, data []byte) error {
	logger := logging.FromContext(ctx).Named("snapshot.bolt")

	data, err := s.compressor.Compress(data)
	if err != nil {
		return wrap("compress", err)
	}

	tx, err := s.db.DB.Begin(true)
	if err != nil {
		return wrap("starting transaction", err)
	}

	defer tx.Rollback() //nolint

	b, err := tx.CreateBucketIfNotExists(bucketName)
	if err != nil {
		return wrap("create bucket", err)
	}

	if err := b.Put(registryKey, data); err != nil {
		return wrap("put registry", err)
	}

	if err := b.Put(savedAtKey, byteutil.EncodeInt64ToBytes(time.Now().UTC().Unix())); err != nil {
		return wrap("put saved_at", err)
	}

	if err := tx.Commit(); err != nil {
		return wrap("committing transaction", err)
	}

	logger.Debugf("saved %d bytes", len(data))
	return nil
}

func (s *BoltStore) Load(_ context.Context) ([]byte, error) {
	var data []byte
	if err := s.db.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}

		// The value is only valid inside the transaction.
		if v := b.Get(registryKey); v != nil {
			data = append([]byte(nil), v...)
		}

		return nil
	}); err != nil {
		return nil, wrap("view transaction", err)
	}

	if data == nil {
		return nil, nil
	}

	data, err := s.compressor.Decompress(data)
	if err != nil {
		return nil, wrap("decompress", err)
	}

	return data, nil
}

// SavedAt reports when the document was last written. Zero if never.
func (s *BoltStore) SavedAt(_ context.Context) (time.Time, error) {
	var ts time.Time
	if err := s.db.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		if v := b.Get(savedAtKey); v != nil {
			ts = time.Unix(byteutil.DecodeBytesToInt64(v), 0).UTC()
		}
		return nil
	}); err != nil {
		return time.Time{}, wrap("view transaction", err)
	}

	return ts, nil
}

// Close releases the compressor. The database is owned by the caller.
func (s *BoltStore) Close() error {
	s.compressor.Close()
	return nil
}
