package storage

import (
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps uploaded assets on disk under the configured uploads
// directory, served by the HTTP layer at /uploads/*.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) path(key string) string {
	key = strings.TrimLeft(filepath.Clean("/"+key), "/")
	return filepath.Join(s.root, filepath.FromSlash(key))
}

func (s *LocalStore) Write(key string, data []byte) error {
	target := s.path(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.WriteFile(target, data, 0o644)
}

func (s *LocalStore) Remove(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// Root is the directory the HTTP layer serves at /uploads/*.
func (s *LocalStore) Root() string {
	return s.root
}
