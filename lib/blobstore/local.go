package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore keeps blobs as files under one directory. Keys are hashed into
// the filename so arbitrary key strings can't escape the directory.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (LocalStore, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return LocalStore{}, fmt.Errorf("create blob dir: %w", err)
	}
	return LocalStore{dir: dir}, nil
}

func (s LocalStore) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".blob")
}

func (s LocalStore) Put(_ context.Context, key string, data []byte) error {
	path := s.path(key)
	tmp := path + ".tmp"
	err := os.WriteFile(tmp, data, 0o644)
	if err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s LocalStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}
