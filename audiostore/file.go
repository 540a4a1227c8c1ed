package audiostore

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// FileStore writes audio into a directory and removes each file once the
// cleanup delay has passed.
type FileStore struct {
	Dir   string
	Delay time.Duration

	logger *slog.Logger
}

func NewFileStore(dir string, delay time.Duration) (*FileStore, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating audio directory %s", dir)
	}
	return &FileStore{
		Dir:    dir,
		Delay:  delay,
		logger: slog.Default().With("component", "audiostore", "backend", "file"),
	}, nil
}

func (s *FileStore) Save(_ context.Context, data []byte) (string, error) {
	name := NewName()
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err, "writing audio file")
	}

	// Fire and forget; the caller never waits on cleanup.
	time.AfterFunc(s.Delay, func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("error cleaning up audio file", "name", name, "error", err)
			return
		}
		s.logger.Debug("cleaned up audio file", "name", name)
	})
	return name, nil
}

func (s *FileStore) Open(_ context.Context, name string) ([]byte, error) {
	if !ValidName(name) {
		return nil, ErrInvalidName
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "reading audio file")
	}
	return data, nil
}
