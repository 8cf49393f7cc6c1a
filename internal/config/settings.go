// Package config resolves lcaflow's runtime configuration from an
// environment snapshot into validated records.
//
// Each external service family has its own builder: Load for the workflow
// and its MCP services, LoadKnowledgeBase, LoadObjectStore and
// LoadExtraction. Builders return *errors.ConfigError for anything the
// operator has to fix; optional scalars that fail to parse fall back to
// their defaults.
package config

import (
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/harunnryd/lcaflow/internal/credential"
	"github.com/harunnryd/lcaflow/internal/environ"
	"github.com/harunnryd/lcaflow/internal/errors"
	"github.com/harunnryd/lcaflow/internal/pathutil"
)

// Defaults
const (
	DefaultMCPBaseURL            = "https://lcamcp.tiangong.earth/mcp"
	DefaultFlowSearchServiceName = "tiangong_lca_remote"
	DefaultFlowSearchToolName    = "Search_Flows_Tool"
	DefaultKBRemoteServiceName   = "TianGong_KB_Remote"
	DefaultLogLevel              = "INFO"
	DefaultCacheDir              = "artifacts/cache"
	DefaultArtifactsDir          = "artifacts"
)

var logLevels = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARNING",
	"warning": "WARNING",
	"error":   "ERROR",
}

// Settings is the resolved workflow configuration. It is immutable once
// returned by Load; share it by pointer.
type Settings struct {
	MCPBaseURL     string                `yaml:"mcp_base_url" json:"mcp_base_url" env:"TIANGONG_LCA_REMOTE_URL" validate:"required,http_url"`
	MCPAPIKey      string                `yaml:"mcp_api_key,omitempty" json:"mcp_api_key,omitempty" env:"TIANGONG_LCA_REMOTE_API_KEY"`
	MCPTransport   Transport             `yaml:"mcp_transport" json:"mcp_transport" env:"TIANGONG_LCA_REMOTE_TRANSPORT" validate:"oneof=streamable_http sse websocket"`
	MCPConnections map[string]Connection `yaml:"-" json:"-" env:"LCA_MCP_CONNECTIONS" validate:"-"`

	FlowSearchServiceName string  `yaml:"flow_search_service_name" json:"flow_search_service_name" env:"TIANGONG_LCA_REMOTE_SERVICE_NAME" validate:"required"`
	FlowSearchToolName    string  `yaml:"flow_search_tool_name" json:"flow_search_tool_name" env:"LCA_FLOW_SEARCH_TOOL_NAME" validate:"required"`
	FlowSearchMaxParallel int     `yaml:"flow_search_max_parallel" json:"flow_search_max_parallel" env:"LCA_FLOW_SEARCH_MAX_PARALLEL"`
	FlowSearchStateCode   int     `yaml:"flow_search_state_code" json:"flow_search_state_code" env:"LCA_FLOW_SEARCH_STATE_CODE"`
	FlowSearchTimeout     float64 `yaml:"flow_search_timeout,omitempty" json:"flow_search_timeout,omitempty" env:"TIANGONG_LCA_REMOTE_TIMEOUT"`

	RequestTimeout  float64 `yaml:"request_timeout" json:"request_timeout" env:"LCA_REQUEST_TIMEOUT"`
	MaxRetries      int     `yaml:"max_retries" json:"max_retries" env:"LCA_MAX_RETRIES"`
	RetryBackoff    float64 `yaml:"retry_backoff" json:"retry_backoff" env:"LCA_RETRY_BACKOFF"`
	LogLevel        string  `yaml:"log_level" json:"log_level" env:"LCA_LOG_LEVEL" validate:"oneof=DEBUG INFO WARNING ERROR"`
	WorkflowProfile string  `yaml:"workflow_profile" json:"workflow_profile" env:"LCA_WORKFLOW_PROFILE" validate:"oneof=default batch debug"`
	MaxConcurrency  int     `yaml:"max_concurrency" json:"max_concurrency" env:"LCA_MAX_CONCURRENCY"`

	CacheDir                    string `yaml:"cache_dir" json:"cache_dir" env:"LCA_CACHE_DIR" validate:"required"`
	ArtifactsDir                string `yaml:"artifacts_dir" json:"artifacts_dir" env:"LCA_ARTIFACTS_DIR" validate:"required"`
	FlowHintCatalogPath         string `yaml:"flow_hint_catalog_path,omitempty" json:"flow_hint_catalog_path,omitempty" env:"LCA_FLOW_HINT_CATALOG_PATH"`
	Stage2ExchangeRetryAttempts int    `yaml:"stage2_exchange_retry_attempts" json:"stage2_exchange_retry_attempts" env:"LCA_STAGE2_EXCHANGE_RETRY_ATTEMPTS"`

	// KBRemoteServiceName and KBRemote are set only when
	// TIANGONG_KB_REMOTE_URL is.
	KBRemoteServiceName string      `yaml:"kb_remote_service_name,omitempty" json:"kb_remote_service_name,omitempty" env:"TIANGONG_KB_REMOTE_SERVICE_NAME"`
	KBRemote            *Connection `yaml:"-" json:"-" env:"TIANGONG_KB_REMOTE_URL" validate:"-"`

	services map[string]Connection
}

// Load resolves Settings from snap. It performs no I/O.
func Load(snap *environ.Snapshot) (*Settings, error) {
	r := newResolver(snap)

	s := &Settings{
		MCPBaseURL:                  r.text(FieldMCPBaseURL),
		MCPTransport:                Transport(strings.ToLower(r.text(FieldMCPTransport))),
		FlowSearchServiceName:       r.text(FieldFlowSearchServiceName),
		FlowSearchToolName:          r.text(FieldFlowSearchToolName),
		FlowSearchMaxParallel:       r.integer(FieldFlowSearchMaxParallel),
		FlowSearchStateCode:         r.integer(FieldFlowSearchStateCode),
		RequestTimeout:              r.float(FieldRequestTimeout),
		MaxRetries:                  r.integer(FieldMaxRetries),
		RetryBackoff:                r.float(FieldRetryBackoff),
		LogLevel:                    normalizeLogLevel(r.text(FieldLogLevel)),
		WorkflowProfile:             normalizeProfile(r.text(FieldWorkflowProfile)),
		MaxConcurrency:              r.integer(FieldMaxConcurrency),
		Stage2ExchangeRetryAttempts: r.integer(FieldStage2Retries),
	}
	s.MCPAPIKey, _ = r.secret(FieldMCPAPIKey, credential.DefaultScheme)
	if timeout, ok := r.optFloat(FieldFlowSearchTimeout); ok && timeout > 0 {
		s.FlowSearchTimeout = timeout
	}

	var err error
	if s.CacheDir, err = r.path(FieldCacheDir); err != nil {
		return nil, err
	}
	if s.ArtifactsDir, err = r.path(FieldArtifactsDir); err != nil {
		return nil, err
	}
	if s.FlowHintCatalogPath, err = r.path(FieldFlowHintCatalog); err != nil {
		return nil, err
	}

	if s.MCPConnections, err = loadExplicitConnections(r); err != nil {
		return nil, err
	}
	if err := loadKBRemote(r, s); err != nil {
		return nil, err
	}
	if err := validateRecord(s); err != nil {
		return nil, err
	}

	flow := s.FlowSearchConnection()
	merged, replaced := MergeConnections(s.MCPConnections,
		DerivedConnection{Name: s.KBRemoteServiceName, Connection: s.KBRemote, Policy: PolicyInsertIfPresent},
		DerivedConnection{Name: s.FlowSearchServiceName, Connection: &flow, Policy: PolicyOverwrite},
	)
	for _, name := range replaced {
		slog.Warn("Explicit MCP connection replaced by derived block", "service", name, "env", FieldKBRemoteURL.Env())
	}
	s.services = merged

	return s, nil
}

// LoadAndPrepare is Load followed by EnsureDirectories.
func LoadAndPrepare(snap *environ.Snapshot) (*Settings, error) {
	s, err := Load(snap)
	if err != nil {
		return nil, err
	}
	if err := s.EnsureDirectories(); err != nil {
		return nil, err
	}
	return s, nil
}

func loadExplicitConnections(r *resolver) (map[string]Connection, error) {
	raw, ok, err := r.json(FieldMCPConnections)
	if err != nil || !ok {
		return nil, err
	}
	env := FieldMCPConnections.Env()
	entries, isObject := raw.(map[string]any)
	if !isObject {
		return nil, errors.Invalid(env, "MCP connections must be a JSON object")
	}
	out := make(map[string]Connection, len(entries))
	for name, value := range entries {
		block, isObject := value.(map[string]any)
		if !isObject {
			return nil, errors.Invalid(env, "MCP connection \""+name+"\" must be a JSON object")
		}
		conn, err := DecodeConnection(block)
		if err != nil {
			return nil, &errors.ConfigError{
				Variable: env,
				Kind:     errors.ErrInvalidConfig,
				Detail:   "MCP connection \"" + name + "\" is invalid",
				Cause:    err,
			}
		}
		out[name] = conn
	}
	return out, nil
}

func loadKBRemote(r *resolver, s *Settings) error {
	url, ok := r.optional(FieldKBRemoteURL)
	if !ok {
		return nil
	}
	transport := Transport(strings.ToLower(r.text(FieldKBRemoteTransport)))
	if !transport.IsHTTP() {
		return errors.Invalid(FieldKBRemoteTransport.Env(), "unsupported knowledge base transport \""+string(transport)+"\"")
	}
	apiKey, _ := r.secret(FieldKBRemoteAPIKey, credential.DefaultScheme)
	timeout, ok := r.optFloat(FieldKBRemoteTimeout)
	if !ok || timeout <= 0 {
		timeout = s.RequestTimeout
	}
	conn := NewHTTPConnection(transport, url, credential.BearerHeader(apiKey), timeout)
	s.KBRemoteServiceName = r.text(FieldKBRemoteServiceName)
	s.KBRemote = &conn
	return nil
}

func normalizeLogLevel(level string) string {
	if canonical, ok := logLevels[strings.ToLower(strings.TrimSpace(level))]; ok {
		return canonical
	}
	slog.Debug("Unknown log level, using default", "value", level, "default", DefaultLogLevel)
	return DefaultLogLevel
}

func normalizeProfile(name string) string {
	switch p := strings.ToLower(strings.TrimSpace(name)); p {
	case ProfileDefault, ProfileBatch, ProfileDebug:
		return p
	default:
		slog.Debug("Unknown workflow profile, using default", "value", name)
		return ProfileDefault
	}
}

// FlowSearchConnection is the connection block for the flow search service.
func (s *Settings) FlowSearchConnection() Connection {
	timeout := s.FlowSearchTimeout
	if timeout <= 0 {
		timeout = s.RequestTimeout
	}
	return NewHTTPConnection(s.MCPTransport, s.MCPBaseURL, credential.BearerHeader(s.MCPAPIKey), timeout)
}

// ServiceConfigs returns the merged MCP service map. The caller owns the result.
func (s *Settings) ServiceConfigs() map[string]Connection {
	out := make(map[string]Connection, len(s.services))
	for name, conn := range s.services {
		out[name] = conn.Clone()
	}
	return out
}

// ServiceMaps is ServiceConfigs flattened for MCP clients.
func (s *Settings) ServiceMaps() map[string]map[string]any {
	out := make(map[string]map[string]any, len(s.services))
	for name, conn := range s.services {
		out[name] = conn.AsMap()
	}
	return out
}

// Profile derives the workflow policy. It is recomputed on every call.
func (s *Settings) Profile() WorkflowProfile {
	return DeriveProfile(s.WorkflowProfile, s.MaxConcurrency, s.MaxRetries)
}

// RequestTimeoutDuration is RequestTimeout as a Duration.
func (s *Settings) RequestTimeoutDuration() time.Duration {
	return Seconds(s.RequestTimeout)
}

// RetryBackoffDuration is RetryBackoff as a Duration.
func (s *Settings) RetryBackoffDuration() time.Duration {
	return Seconds(s.RetryBackoff)
}

// EnsureDirectories creates the artifacts and cache directories. It is safe
// to call repeatedly.
func (s *Settings) EnsureDirectories() error {
	if err := pathutil.EnsureDirs(s.ArtifactsDir, s.CacheDir); err != nil {
		return errors.Wrap(err, "prepare workflow directories")
	}
	return nil
}

// Redacted returns a copy with secrets masked, for display.
func (s *Settings) Redacted() *Settings {
	if s == nil {
		return nil
	}
	out := *s
	out.MCPAPIKey = credential.Mask(s.MCPAPIKey)
	out.MCPConnections = maps.Clone(s.MCPConnections)
	for name, conn := range out.MCPConnections {
		out.MCPConnections[name] = conn.Redacted()
	}
	if s.KBRemote != nil {
		kb := s.KBRemote.Redacted()
		out.KBRemote = &kb
	}
	out.services = make(map[string]Connection, len(s.services))
	for name, conn := range s.services {
		out.services[name] = conn.Redacted()
	}
	return &out
}
