package ports

import (
	"context"
	"io"
)

// ImageStore persists uploaded images under generated names.
type ImageStore interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	// Open returns the stored bytes and their content type, or
	// domain.ErrImageNotFound.
	Open(ctx context.Context, name string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, name string) error
}
