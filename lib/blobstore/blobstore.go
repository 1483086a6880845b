// Package blobstore stores raw result blobs referenced by checkpoints. Keys
// are opaque strings chosen by the caller, usually a job fingerprint plus a
// timestamp.
package blobstore

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("blob not found")

type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	// Get returns ErrNotFound when the key has never been written.
	Get(ctx context.Context, key string) ([]byte, error)
}
