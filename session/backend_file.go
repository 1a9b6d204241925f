package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBackend stores the blob in a single file, the desktop counterpart of a
// browser's local storage slot.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend writing to path. The parent directory is
// created on first write.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Path returns the backing file path.
func (b *FileBackend) Path() string {
	return b.path
}

func (b *FileBackend) Get(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return data, nil
}

// Put writes through a temp file and rename so readers never observe a torn record.
func (b *FileBackend) Put(ctx context.Context, data []byte) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(b.path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (b *FileBackend) Delete(ctx context.Context) error {
	if err := os.Remove(b.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}
