// Package blob stores uploaded attachment objects. The application only
// depends on the Storage contract; LocalStorage keeps objects on disk
// under a configured root.
package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ymori/salesdesk/internal/errs"
)

// Storage is the object storage contract: upload by path returning a
// retrievable URL, and download by path returning raw bytes (so private
// objects can be fetched without exposing a public URL).
type Storage interface {
	Upload(ctx context.Context, path string, data []byte) (string, error)
	Download(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}

// LocalStorage implements Storage on the local filesystem.
type LocalStorage struct {
	root string
}

// NewLocalStorage creates a LocalStorage rooted at dir, creating it if
// needed.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage root %s: %w", dir, err)
	}
	return &LocalStorage{root: dir}, nil
}

// resolve maps an object path under the root, rejecting escapes.
func (l *LocalStorage) resolve(path string) (string, error) {
	cleaned := filepath.Clean("/" + path)
	if cleaned == "/" {
		return "", errs.Validation("path", "must not be empty")
	}
	full := filepath.Join(l.root, cleaned)
	if !strings.HasPrefix(full, l.root+string(filepath.Separator)) {
		return "", errs.Validation("path", "escapes storage root")
	}
	return full, nil
}

// Upload writes data at path and returns its file URL.
func (l *LocalStorage) Upload(ctx context.Context, path string, data []byte) (string, error) {
	full, err := l.resolve(path)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("creating object directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("writing object %s: %w", path, err)
	}

	return "file://" + filepath.ToSlash(full), nil
}

// Download returns the raw bytes stored at path.
func (l *LocalStorage) Download(ctx context.Context, path string) ([]byte, error) {
	full, err := l.resolve(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NotFound("object", path)
		}
		return nil, fmt.Errorf("reading object %s: %w", path, err)
	}
	return data, nil
}

// Delete removes the object stored at path.
func (l *LocalStorage) Delete(ctx context.Context, path string) error {
	full, err := l.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return errs.NotFound("object", path)
		}
		return fmt.Errorf("deleting object %s: %w", path, err)
	}
	return nil
}
