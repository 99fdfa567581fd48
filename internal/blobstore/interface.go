package blobstore

import (
	"context"
	"io"
)

// PutResult describes one persisted payload.
type PutResult struct {
	SHA256    string
	SizeBytes int64
	Key       string
}

// BlobStore is the byte layer under the media store. Keys are content addresses,
// so storing identical bytes twice yields the same key.
type BlobStore interface {
	Put(ctx context.Context, r io.Reader) (PutResult, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}
