package snapshot

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bloops-games/launched/internal/logging"
)

var _ Store = (*FileStore)(nil)

// FileStore keeps the document in a single file, replaced atomically.
type FileStore struct {
	path       string
	compressor Compressor
}

func NewFileStore(path string, compressor Compressor) *FileStore {
	if compressor == nil {
		compressor = Identity{}
	}
	return &FileStore{path: path, compressor: compressor}
}

func (s *FileStore) Save(ctx context.Context, data []byte) error {
	logger := logging.FromContext(ctx).Named("snapshot.file")

	data, err := s.compressor.Compress(data)
	if err != nil {
		return wrap("compress", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return wrap("create dir", err)
		}
	}

	tmpFile := s.path + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return wrap("create tmp file", err)
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return wrap("write tmp file", err)
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return wrap("sync tmp file", err)
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return wrap("close tmp file", err)
	}

	if err = os.Rename(tmpFile, s.path); err != nil {
		os.Remove(tmpFile)
		return wrap("rename tmp file", err)
	}

	logger.Debugf("saved %d bytes to %s", len(data), s.path)
	return nil
}

func (s *FileStore) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, wrap("read file", err)
	}

	data, err = s.compressor.Decompress(data)
	if err != nil {
		return nil, wrap("decompress", err)
	}

	return data, nil
}

func (s *FileStore) Close() error {
	s.compressor.Close()
	return nil
}
