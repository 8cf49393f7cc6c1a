package config

import (
	"net/url"
	"strings"

	"github.com/harunnryd/lcaflow/internal/credential"
	"github.com/harunnryd/lcaflow/internal/environ"
	"github.com/harunnryd/lcaflow/internal/errors"
)

// ObjectStoreConfig holds the bucket that stores knowledge base artifacts.
type ObjectStoreConfig struct {
	Endpoint     string `yaml:"endpoint" env:"TIANGONG_MINIO_ENDPOINT" validate:"required"`
	AccessKey    string `yaml:"access_key" env:"TIANGONG_MINIO_ACCESS_KEY" validate:"required"`
	SecretKey    string `yaml:"secret_key" env:"TIANGONG_MINIO_SECRET_KEY" validate:"required"`
	BucketName   string `yaml:"bucket_name" env:"TIANGONG_MINIO_BUCKET_NAME" validate:"required"`
	Prefix       string `yaml:"prefix,omitempty" env:"TIANGONG_MINIO_PREFIX"`
	Secure       bool   `yaml:"secure" env:"TIANGONG_MINIO_SECURE"`
	SessionToken string `yaml:"session_token,omitempty" env:"TIANGONG_MINIO_SESSION_TOKEN"`
}

// LoadObjectStore resolves the bucket configuration. Mandatory fields are
// checked in the order endpoint, access_key, secret_key, bucket_name and the
// first missing one is reported.
func LoadObjectStore(snap *environ.Snapshot) (*ObjectStoreConfig, error) {
	r := newResolver(snap)

	rawEndpoint, err := r.require(FieldMinioEndpoint, missingDetail("MinIO", "endpoint"))
	if err != nil {
		return nil, err
	}
	accessKey, err := r.require(FieldMinioAccessKey, missingDetail("MinIO", "access_key"))
	if err != nil {
		return nil, err
	}
	secretKey, err := r.require(FieldMinioSecretKey, missingDetail("MinIO", "secret_key"))
	if err != nil {
		return nil, err
	}
	bucket, err := r.require(FieldMinioBucketName, missingDetail("MinIO", "bucket_name"))
	if err != nil {
		return nil, err
	}

	endpoint, secure, err := normalizeEndpoint(rawEndpoint)
	if err != nil {
		return nil, err
	}
	if override, ok := r.optBool(FieldMinioSecure); ok {
		secure = override
	}

	cfg := &ObjectStoreConfig{
		Endpoint:   endpoint,
		AccessKey:  accessKey,
		SecretKey:  secretKey,
		BucketName: bucket,
		Prefix:     r.text(FieldMinioPrefix),
		Secure:     secure,
	}
	cfg.SessionToken, _ = r.optional(FieldMinioSessionToken)

	if err := validateRecord(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalizeEndpoint turns "scheme://host:port" into host:port and reports
// whether TLS should be used. Values without a scheme are taken as-is and
// default to TLS.
func normalizeEndpoint(raw string) (string, bool, error) {
	if !strings.Contains(raw, "://") {
		return raw, true, nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false, errors.Invalid(FieldMinioEndpoint.Env(), "Invalid MinIO endpoint \""+raw+"\"")
	}
	return u.Host, !strings.EqualFold(u.Scheme, "http"), nil
}

// NormalizedPrefix is Prefix without leading or trailing slashes.
func (c *ObjectStoreConfig) NormalizedPrefix() string {
	return strings.Trim(c.Prefix, "/")
}

// BuildPrefix joins parts under the configured root prefix.
func (c *ObjectStoreConfig) BuildPrefix(parts ...string) string {
	return JoinRemotePath(append([]string{c.NormalizedPrefix()}, parts...)...)
}

// Redacted returns a copy with credentials masked.
func (c *ObjectStoreConfig) Redacted() *ObjectStoreConfig {
	out := *c
	out.SecretKey = credential.Mask(c.SecretKey)
	out.SessionToken = credential.Mask(c.SessionToken)
	return &out
}

// JoinRemotePath joins object key components with "/", dropping empty
// components and the slashes around each one.
func JoinRemotePath(components ...string) string {
	parts := make([]string, 0, len(components))
	for _, c := range components {
		if text := strings.Trim(c, "/"); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "/")
}
