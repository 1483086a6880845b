package main

import (
	"context"

	"medharvest-backend/lib/blobstore"
)

type BlobsConfig struct {
	// Dir stores blobs on the local filesystem.
	Dir string `json:"dir"`
	// S3 takes precedence over Dir when set.
	S3 *blobstore.S3Config `json:"s3"`
}

func InitBlobs(ctx context.Context, cfg BlobsConfig) (blobstore.Store, error) {
	if cfg.S3 != nil {
		return blobstore.NewS3Store(ctx, *cfg.S3)
	}
	dir := cfg.Dir
	if dir == "" {
		dir = "blobs"
	}
	return blobstore.NewLocalStore(dir)
}
