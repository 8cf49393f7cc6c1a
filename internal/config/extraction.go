package config

import (
	"net/url"
	"strconv"
	"time"

	"github.com/harunnryd/lcaflow/internal/credential"
	"github.com/harunnryd/lcaflow/internal/environ"
)

const DefaultExtractionTimeout = 180.0

// ExtractionConfig configures the document extraction (MinerU) service.
type ExtractionConfig struct {
	URL          string  `yaml:"url" env:"TIANGONG_MINERU_WITH_IMAGE_URL" validate:"required,url"`
	APIKey       string  `yaml:"api_key,omitempty" env:"TIANGONG_MINERU_WITH_IMAGE_API_KEY"`
	APIKeyHeader string  `yaml:"api_key_header" env:"TIANGONG_MINERU_WITH_IMAGE_API_KEY_HEADER" validate:"required"`
	APIKeyPrefix string  `yaml:"api_key_prefix" env:"TIANGONG_MINERU_WITH_IMAGE_API_KEY_PREFIX"`
	Timeout      float64 `yaml:"timeout" env:"TIANGONG_MINERU_WITH_IMAGE_TIMEOUT" validate:"gt=0"`
	Provider     string  `yaml:"provider,omitempty" env:"TIANGONG_MINERU_WITH_IMAGE_PROVIDER"`
	Model        string  `yaml:"model,omitempty" env:"TIANGONG_MINERU_WITH_IMAGE_MODEL"`
	ChunkType    *bool   `yaml:"chunk_type,omitempty" env:"TIANGONG_MINERU_WITH_IMAGE_CHUNK_TYPE"`
	VerifySSL    bool    `yaml:"verify_ssl" env:"TIANGONG_MINERU_WITH_IMAGE_VERIFY_SSL"`
}

// LoadExtraction resolves the extraction service configuration. Only the
// URL is mandatory. The API key is stripped of the configured prefix.
func LoadExtraction(snap *environ.Snapshot) (*ExtractionConfig, error) {
	r := newResolver(snap)

	serviceURL, err := r.require(FieldExtractionURL, "Mineru service URL missing")
	if err != nil {
		return nil, err
	}

	cfg := &ExtractionConfig{
		URL:          serviceURL,
		APIKeyHeader: r.text(FieldExtractionAPIKeyHeader),
		APIKeyPrefix: r.text(FieldExtractionAPIKeyPrefix),
		Timeout:      r.float(FieldExtractionTimeout),
		VerifySSL:    r.boolean(FieldExtractionVerifySSL),
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultExtractionTimeout
	}
	cfg.APIKey, _ = r.secret(FieldExtractionAPIKey, cfg.APIKeyPrefix)
	cfg.Provider, _ = r.optional(FieldExtractionProvider)
	cfg.Model, _ = r.optional(FieldExtractionModel)
	if chunk, ok := r.optBool(FieldExtractionChunkType); ok {
		cfg.ChunkType = &chunk
	}

	if err := validateRecord(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AuthHeaders returns the auth header for the configured key, or an empty map.
func (c *ExtractionConfig) AuthHeaders() map[string]string {
	return credential.AuthHeader(c.APIKey, c.APIKeyHeader, c.APIKeyPrefix)
}

// FormFields are the multipart form values pinning provider and model.
func (c *ExtractionConfig) FormFields() url.Values {
	form := url.Values{}
	if c.Provider != "" {
		form.Set("provider", c.Provider)
	}
	if c.Model != "" {
		form.Set("model", c.Model)
	}
	return form
}

// QueryParams carries chunk_type when it is configured.
func (c *ExtractionConfig) QueryParams() url.Values {
	q := url.Values{}
	if c.ChunkType != nil {
		q.Set("chunk_type", strconv.FormatBool(*c.ChunkType))
	}
	return q
}

// RequestTimeout is Timeout as a Duration.
func (c *ExtractionConfig) RequestTimeout() time.Duration {
	return SecondsOrDefault(c.Timeout, DefaultExtractionTimeout)
}

// Redacted returns a copy with the API key masked.
func (c *ExtractionConfig) Redacted() *ExtractionConfig {
	out := *c
	out.APIKey = credential.Mask(c.APIKey)
	return &out
}
