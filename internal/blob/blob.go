// Package blob abstracts the place where input tables, prediction files and
// reports live: a local directory or an S3-compatible bucket.
package blob

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("blob not found")

type Reader interface {
	// Get returns ErrNotFound (wrapped) when path does not exist.
	Get(ctx context.Context, path string) (io.ReadCloser, error)
}

type Writer interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

type Store interface {
	Reader
	Writer
}
