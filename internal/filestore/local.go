package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const localScheme = "file://"

// LocalStore keeps uploads on disk under a base directory. Used for local development.
type LocalStore struct {
	dir string
	now func() time.Time
}

// NewLocalStore creates the base directory if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, now: time.Now}, nil
}

// Put writes data under the base directory.
func (s *LocalStore) Put(ctx context.Context, userID, filename, contentType string, data []byte) (Handle, error) {
	name, err := objectName(userID, filename, s.now(), uuid.New())
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o600); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return Handle(localScheme + name), nil
}

// Get reads a file previously stored by Put.
func (s *LocalStore) Get(ctx context.Context, userID string, h Handle) ([]byte, error) {
	if !strings.HasPrefix(string(h), localScheme) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}
	name := strings.TrimPrefix(string(h), localScheme)
	if err := checkOwner(userID, name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, filepath.FromSlash(name)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}
