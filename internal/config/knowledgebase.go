package config

import (
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/harunnryd/lcaflow/internal/coerce"
	"github.com/harunnryd/lcaflow/internal/credential"
	"github.com/harunnryd/lcaflow/internal/environ"
	"github.com/harunnryd/lcaflow/internal/errors"
)

const (
	DefaultKBTimeout        = 60.0
	DefaultKBDatasourceType = "local_file"
	DefaultKBResponseMode   = "blocking"
	defaultJoinSeparator    = "; "
)

// MetadataFieldDefinition describes a metadata field attached to every
// document ingested into the knowledge base.
type MetadataFieldDefinition struct {
	Name     string  `json:"name" yaml:"name"`
	Type     string  `json:"type" yaml:"type"`
	Source   *string `json:"source,omitempty" yaml:"source,omitempty"`
	Value    *string `json:"value,omitempty" yaml:"value,omitempty"`
	Default  *string `json:"default,omitempty" yaml:"default,omitempty"`
	JoinWith *string `json:"join_with,omitempty" yaml:"join_with,omitempty"`
}

// DefaultMetadataFields is used when no valid definitions are configured.
func DefaultMetadataFields() []MetadataFieldDefinition {
	return []MetadataFieldDefinition{
		{Name: "meta", Type: "string", Source: ptr("meta"), JoinWith: ptr(defaultJoinSeparator)},
		{Name: "category", Type: "string", Source: ptr("category"), JoinWith: ptr(defaultJoinSeparator)},
	}
}

func ptr(s string) *string { return &s }

// RenderValue returns the value to attach for this field given a document
// record. A literal Value wins; otherwise the record is read at Source (or
// Name), falling back to Default. Lists are joined with JoinWith.
func (m MetadataFieldDefinition) RenderValue(record map[string]any) (string, bool) {
	if m.Value != nil {
		return *m.Value, true
	}
	key := m.Name
	if m.Source != nil && *m.Source != "" {
		key = *m.Source
	}
	if key == "" {
		return "", false
	}

	candidate, ok := record[key]
	if !ok || candidate == nil {
		if m.Default == nil {
			return "", false
		}
		candidate = *m.Default
	}

	switch v := candidate.(type) {
	case []any:
		return m.join(v)
	case []string:
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
		return m.join(items)
	case string:
		text := strings.TrimSpace(v)
		return text, text != ""
	default:
		text := strings.TrimSpace(renderScalar(v))
		return text, text != ""
	}
}

// renderScalar spells numbers without exponents and booleans capitalized,
// matching what the ingestion pipeline already stores.
func renderScalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		if x {
			return "True"
		}
		return "False"
	}
	if f, ok := coerce.Float(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func (m MetadataFieldDefinition) join(items []any) (string, bool) {
	pieces := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if s, ok := item.(string); ok && s == "" {
			continue
		}
		pieces = append(pieces, strings.TrimSpace(renderScalar(item)))
	}
	if len(pieces) == 0 {
		return "", false
	}
	sep := defaultJoinSeparator
	if m.JoinWith != nil {
		sep = *m.JoinWith
	}
	return strings.Join(pieces, sep), true
}

// KnowledgeBaseConfig is the knowledge base ingestion API configuration.
type KnowledgeBaseConfig struct {
	BaseURL                string                    `yaml:"base_url" env:"TIANGONG_KB_BASE_URL" validate:"required,url"`
	APIKey                 string                    `yaml:"api_key" env:"TIANGONG_KB_API_KEY" validate:"required"`
	DatasetID              string                    `yaml:"dataset_id" env:"TIANGONG_KB_DATASET_ID" validate:"required"`
	RequestTimeout         float64                   `yaml:"request_timeout" env:"TIANGONG_KB_TIMEOUT" validate:"gt=0"`
	MetadataFields         []MetadataFieldDefinition `yaml:"metadata_fields" env:"TIANGONG_KB_METADATA_FIELDS" validate:"min=1"`
	PipelineDatasourceType string                    `yaml:"pipeline_datasource_type" env:"TIANGONG_KB_PIPELINE_DATASOURCE_TYPE"`
	PipelineStartNodeID    string                    `yaml:"pipeline_start_node_id,omitempty" env:"TIANGONG_KB_PIPELINE_START_NODE_ID"`
	PipelineInputs         map[string]any            `yaml:"pipeline_inputs" env:"TIANGONG_KB_PIPELINE_INPUTS"`
	PipelineResponseMode   string                    `yaml:"pipeline_response_mode" env:"TIANGONG_KB_PIPELINE_RESPONSE_MODE"`
	PipelineIsPublished    bool                      `yaml:"pipeline_is_published" env:"TIANGONG_KB_PIPELINE_IS_PUBLISHED"`
}

// LoadKnowledgeBase resolves the knowledge base configuration. base_url,
// dataset_id and api_key are mandatory and checked in that order.
func LoadKnowledgeBase(snap *environ.Snapshot) (*KnowledgeBaseConfig, error) {
	r := newResolver(snap)

	baseURL, err := r.require(FieldKBBaseURL, missingDetail("Knowledge base", "base_url"))
	if err != nil {
		return nil, err
	}
	datasetID, err := r.require(FieldKBDatasetID, missingDetail("Knowledge base", "dataset_id"))
	if err != nil {
		return nil, err
	}
	apiKey, ok := r.secret(FieldKBAPIKey, credential.DefaultScheme)
	if !ok {
		return nil, errors.Missing(FieldKBAPIKey.Env(), missingDetail("Knowledge base", "api_key"))
	}

	cfg := &KnowledgeBaseConfig{
		BaseURL:                NormalizeBaseURL(baseURL),
		APIKey:                 apiKey,
		DatasetID:              datasetID,
		RequestTimeout:         r.float(FieldKBTimeout),
		PipelineDatasourceType: r.text(FieldKBPipelineDatasource),
		PipelineResponseMode:   r.text(FieldKBPipelineResponse),
		PipelineIsPublished:    r.boolean(FieldKBPipelineIsPublished),
		PipelineInputs:         map[string]any{},
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultKBTimeout
	}
	cfg.PipelineStartNodeID, _ = r.optional(FieldKBPipelineStartNode)

	rawFields, _, err := r.json(FieldKBMetadataFields)
	if err != nil {
		return nil, err
	}
	cfg.MetadataFields = parseMetadataFields(rawFields)

	rawInputs, ok, err := r.json(FieldKBPipelineInputs)
	if err != nil {
		return nil, err
	}
	if ok && rawInputs != nil {
		inputs, isObject := rawInputs.(map[string]any)
		if !isObject {
			return nil, errors.Invalid(FieldKBPipelineInputs.Env(), "KB pipeline inputs must be a JSON object")
		}
		cfg.PipelineInputs = inputs
	}

	if err := validateRecord(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NormalizeBaseURL trims trailing slashes and appends exactly one.
func NormalizeBaseURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/") + "/"
}

// parseMetadataFields keeps entries that are objects with a non-blank name.
// Anything else is skipped; an empty result falls back to the defaults.
func parseMetadataFields(raw any) []MetadataFieldDefinition {
	entries, ok := raw.([]any)
	if !ok {
		if raw != nil {
			slog.Debug("Ignoring metadata fields that are not a JSON list", "env", FieldKBMetadataFields.Env())
		}
		return DefaultMetadataFields()
	}

	defs := make([]MetadataFieldDefinition, 0, len(entries))
	for i, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			slog.Debug("Skipping metadata field", "index", i, "reason", "not an object")
			continue
		}
		def := MetadataFieldDefinition{
			Name:     strings.TrimSpace(stringField(obj, "name")),
			Type:     strings.TrimSpace(stringField(obj, "type")),
			Source:   optionalString(obj, "source", false),
			Value:    optionalString(obj, "value", false),
			Default:  optionalString(obj, "default", false),
			JoinWith: optionalString(obj, "join_with", true),
		}
		if def.Name == "" {
			slog.Debug("Skipping metadata field", "index", i, "reason", "missing name")
			continue
		}
		if def.Type == "" {
			def.Type = "string"
		}
		if def.JoinWith == nil {
			def.JoinWith = ptr(defaultJoinSeparator)
		}
		defs = append(defs, def)
	}
	if len(defs) == 0 {
		return DefaultMetadataFields()
	}
	return defs
}

func stringField(obj map[string]any, key string) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func optionalString(obj map[string]any, key string, allowBlank bool) *string {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil
	}
	text := fmt.Sprint(v)
	if !allowBlank {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil
		}
	}
	return &text
}

// AuthorizationHeader is the bearer header expected by the ingestion API.
func (c *KnowledgeBaseConfig) AuthorizationHeader() map[string]string {
	return credential.BearerHeader(c.APIKey)
}

// Timeout is RequestTimeout as a Duration.
func (c *KnowledgeBaseConfig) Timeout() time.Duration {
	return SecondsOrDefault(c.RequestTimeout, DefaultKBTimeout)
}

// Redacted returns a copy with the API key masked.
func (c *KnowledgeBaseConfig) Redacted() *KnowledgeBaseConfig {
	out := *c
	out.APIKey = credential.Mask(c.APIKey)
	out.PipelineInputs = maps.Clone(c.PipelineInputs)
	return &out
}
