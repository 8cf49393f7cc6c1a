// Package objectstore constructs the object storage client used for
// knowledge base artifacts. Construction performs no network I/O.
package objectstore

import (
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/harunnryd/lcaflow/internal/config"
)

// Bucket pairs a client with the configured bucket and key prefix.
type Bucket struct {
	Client *minio.Client
	Name   string

	cfg config.ObjectStoreConfig
}

// NewClient builds a MinIO client from cfg.
func NewClient(cfg *config.ObjectStoreConfig) (*minio.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("object store config is nil")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client for %s: %w", cfg.Endpoint, err)
	}
	return client, nil
}

// Open returns a Bucket for cfg.
func Open(cfg *config.ObjectStoreConfig) (*Bucket, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Bucket{Client: client, Name: cfg.BucketName, cfg: *cfg}, nil
}

// Key returns the object key for parts under the configured prefix.
func (b *Bucket) Key(parts ...string) string {
	return b.cfg.BuildPrefix(parts...)
}

// Endpoint is the URL the client talks to.
func (b *Bucket) Endpoint() string {
	return b.Client.EndpointURL().String()
}
