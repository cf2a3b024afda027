// Package storage persists export documents and issues time-limited links to them.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// LinkTTL is the validity of a download link issued for a finished export.
const LinkTTL = 7 * 24 * time.Hour

// ErrObjectNotFound is returned when a key has no stored object.
var ErrObjectNotFound = errors.New("storage: object not found")

// ObjectStore stores document bytes under a key and signs download links.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Key is the object key for an export artifact.
func Key(exportID, format string) string {
	return fmt.Sprintf("exports/%s.%s", exportID, format)
}
