// Package filestore keeps the raw files users upload, keyed by owner.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("file not found")
	ErrForbidden     = errors.New("file belongs to another user")
	ErrInvalidHandle = errors.New("invalid file handle")
)

// Handle identifies a stored file, e.g. "gs://bucket/uploads/u1/2024/01/15/<id>.csv".
type Handle string

// FileStore stores raw uploads.
type FileStore interface {
	Put(ctx context.Context, userID, filename, contentType string, data []byte) (Handle, error)
	// Get returns the bytes behind h if it belongs to userID.
	Get(ctx context.Context, userID string, h Handle) ([]byte, error)
}

// objectName builds uploads/<user>/<yyyy>/<mm>/<dd>/<id><ext>.
func objectName(userID, filename string, now time.Time, id uuid.UUID) (string, error) {
	if userID == "" || strings.ContainsAny(userID, "/\\") || userID == "." || userID == ".." {
		return "", fmt.Errorf("invalid user id %q", userID)
	}
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) > 10 || strings.ContainsAny(ext, " /") {
		ext = ""
	}
	return path.Join("uploads", userID, now.UTC().Format("2006/01/02"), id.String()+ext), nil
}

// checkOwner verifies that name lives under the user's upload prefix.
func checkOwner(userID, name string) error {
	clean := path.Clean(name)
	if clean != name || strings.HasPrefix(clean, "../") || clean == ".." {
		return fmt.Errorf("%w: %s", ErrInvalidHandle, name)
	}
	if !strings.HasPrefix(clean, path.Join("uploads", userID)+"/") {
		return ErrForbidden
	}
	return nil
}
