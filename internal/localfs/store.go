// Package localfs serves objects from a local directory tree, laid out as
// <root>/<bucket>/<key>. It lets the CLI run the pipeline without Cloud Storage.
package localfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Lllllllleong/documentingestion/internal/models"
)

// Store reads objects from disk.
type Store struct {
	root string
}

// New returns a Store rooted at dir.
func New(dir string) *Store {
	return &Store{root: dir}
}

func (s *Store) path(bucket, key string) (string, error) {
	p := filepath.Join(s.root, bucket, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("object %s/%s escapes the store root", bucket, key)
	}
	return p, nil
}

// GetObject reads the file for bucket/key. The key is used verbatim, so an
// encoded key names a file whose name contains the escape sequence.
func (s *Store) GetObject(_ context.Context, bucket, key string) ([]byte, error) {
	p, err := s.path(bucket, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// HeadObject reports the file's modification time and size.
func (s *Store) HeadObject(_ context.Context, bucket, key string) (models.ObjectMetadata, error) {
	p, err := s.path(bucket, key)
	if err != nil {
		return models.ObjectMetadata{}, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return models.ObjectMetadata{}, fmt.Errorf("stat %s/%s: %w", bucket, key, err)
	}
	return models.ObjectMetadata{LastModified: info.ModTime(), Size: info.Size()}, nil
}
