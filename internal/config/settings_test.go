package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harunnryd/lcaflow/internal/environ"
	"github.com/harunnryd/lcaflow/internal/errors"
)

func loadFrom(t *testing.T, vars map[string]string) (*Settings, error) {
	t.Helper()
	return Load(environ.FromMap(vars))
}

func requireConfigError(t *testing.T, err error, kind error, variable string) *errors.ConfigError {
	t.Helper()
	require.Error(t, err)
	cfgErr, ok := errors.AsConfigError(err)
	require.True(t, ok, "expected ConfigError, got %T: %v", err, err)
	assert.ErrorIs(t, err, kind)
	assert.Equal(t, variable, cfgErr.Variable)
	return cfgErr
}

func TestLoad_Defaults(t *testing.T) {
	s, err := loadFrom(t, nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultMCPBaseURL, s.MCPBaseURL)
	assert.Equal(t, TransportStreamableHTTP, s.MCPTransport)
	assert.Empty(t, s.MCPAPIKey)
	assert.Equal(t, DefaultFlowSearchServiceName, s.FlowSearchServiceName)
	assert.Equal(t, DefaultFlowSearchToolName, s.FlowSearchToolName)
	assert.Equal(t, 1, s.FlowSearchMaxParallel)
	assert.Equal(t, 100, s.FlowSearchStateCode)
	assert.Zero(t, s.FlowSearchTimeout)
	assert.Equal(t, 30.0, s.RequestTimeout)
	assert.Equal(t, 3, s.MaxRetries)
	assert.Equal(t, 0.5, s.RetryBackoff)
	assert.Equal(t, "INFO", s.LogLevel)
	assert.Equal(t, ProfileDefault, s.WorkflowProfile)
	assert.Equal(t, 4, s.MaxConcurrency)
	assert.Equal(t, filepath.Clean(DefaultCacheDir), s.CacheDir)
	assert.Equal(t, DefaultArtifactsDir, s.ArtifactsDir)
	assert.Empty(t, s.FlowHintCatalogPath)
	assert.Equal(t, 2, s.Stage2ExchangeRetryAttempts)
	assert.Nil(t, s.KBRemote)

	assert.Equal(t, 30*time.Second, s.RequestTimeoutDuration())
	assert.Equal(t, 500*time.Millisecond, s.RetryBackoffDuration())

	services := s.ServiceConfigs()
	require.Len(t, services, 1)
	flow := services[DefaultFlowSearchServiceName]
	require.NotNil(t, flow.HTTP)
	assert.Equal(t, DefaultMCPBaseURL, flow.HTTP.URL)
	assert.Equal(t, 30.0, flow.HTTP.Timeout)
	assert.Empty(t, flow.HTTP.Headers)
}

func TestLoad_AliasPrecedence(t *testing.T) {
	s, err := loadFrom(t, map[string]string{
		"TIANGONG_LCA_REMOTE_URL":          "https://primary.example/mcp",
		"LCA_MCP_BASE_URL":                 "https://alias.example/mcp",
		"LCA_FLOW_SEARCH_SERVICE_NAME":     "alias_name",
		"TIANGONG_LCA_REMOTE_SERVICE_NAME": "  ",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://primary.example/mcp", s.MCPBaseURL)
	assert.Equal(t, "alias_name", s.FlowSearchServiceName)
	assert.Contains(t, s.ServiceConfigs(), "alias_name")
}

func TestLoad_SanitizesRemoteAPIKey(t *testing.T) {
	s, err := loadFrom(t, map[string]string{
		"TIANGONG_LCA_REMOTE_AUTHORIZATION": "bearer  tok-123 ",
	})
	require.NoError(t, err)

	assert.Equal(t, "tok-123", s.MCPAPIKey)
	flow := s.FlowSearchConnection()
	assert.Equal(t, map[string]string{"Authorization": "Bearer tok-123"}, flow.HTTP.Headers)
}

func TestLoad_FlowSearchTimeout(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want float64
	}{
		{name: "explicit", vars: map[string]string{"TIANGONG_LCA_REMOTE_TIMEOUT": "12.5"}, want: 12.5},
		{name: "alias", vars: map[string]string{"LCA_FLOW_SEARCH_TIMEOUT": "7"}, want: 7},
		{name: "zero falls back", vars: map[string]string{"TIANGONG_LCA_REMOTE_TIMEOUT": "0", "LCA_REQUEST_TIMEOUT": "45"}, want: 45},
		{name: "negative falls back", vars: map[string]string{"TIANGONG_LCA_REMOTE_TIMEOUT": "-3"}, want: 30},
		{name: "unparsable falls back", vars: map[string]string{"TIANGONG_LCA_REMOTE_TIMEOUT": "soon"}, want: 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := loadFrom(t, tt.vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.FlowSearchConnection().HTTP.Timeout)
		})
	}
}

func TestLoad_NoTimeoutWhenRequestTimeoutNotPositive(t *testing.T) {
	s, err := loadFrom(t, map[string]string{"LCA_REQUEST_TIMEOUT": "0"})
	require.NoError(t, err)

	m := s.FlowSearchConnection().AsMap()
	assert.NotContains(t, m, "timeout")
}

func TestLoad_UnparsableScalarsDegrade(t *testing.T) {
	s, err := loadFrom(t, map[string]string{
		"LCA_REQUEST_TIMEOUT":        "abc",
		"LCA_MAX_RETRIES":            "many",
		"LCA_RETRY_BACKOFF":          "",
		"LCA_MAX_CONCURRENCY":        "2.5",
		"LCA_LOG_LEVEL":              "verbose",
		"LCA_WORKFLOW_PROFILE":       "turbo",
		"LCA_FLOW_SEARCH_STATE_CODE": "3.0",
	})
	require.NoError(t, err)

	assert.Equal(t, 30.0, s.RequestTimeout)
	assert.Equal(t, 3, s.MaxRetries)
	assert.Equal(t, 0.5, s.RetryBackoff)
	assert.Equal(t, 4, s.MaxConcurrency)
	assert.Equal(t, "INFO", s.LogLevel)
	assert.Equal(t, ProfileDefault, s.WorkflowProfile)
	assert.Equal(t, 3, s.FlowSearchStateCode)
}

func TestLoad_OutOfRangeAndNonFiniteNumbersDegrade(t *testing.T) {
	s, err := loadFrom(t, map[string]string{
		"LCA_MAX_CONCURRENCY":         "99999999999999999999",
		"LCA_MAX_RETRIES":             "9223372036854775807",
		"LCA_WORKFLOW_PROFILE":        "batch",
		"LCA_REQUEST_TIMEOUT":         "inf",
		"LCA_RETRY_BACKOFF":           "nan",
		"TIANGONG_LCA_REMOTE_TIMEOUT": "-inf",
	})
	require.NoError(t, err)

	assert.Equal(t, 4, s.MaxConcurrency)
	assert.Equal(t, 30.0, s.RequestTimeout)
	assert.Equal(t, 0.5, s.RetryBackoff)
	assert.Zero(t, s.FlowSearchTimeout)

	profile := s.Profile()
	assert.Equal(t, 4, profile.Concurrency)
	assert.Greater(t, profile.RetryAttempts, 0)

	_, err = json.Marshal(s.ServiceConfigs())
	require.NoError(t, err)
}

func TestLoad_PathVariablesComeFromSnapshot(t *testing.T) {
	t.Setenv("LCAFLOW_ROOT", "/from/process")

	s, err := loadFrom(t, map[string]string{
		"LCAFLOW_ROOT":      "/srv/lca",
		"LCA_ARTIFACTS_DIR": "$LCAFLOW_ROOT/artifacts",
		"LCA_CACHE_DIR":     "${LCAFLOW_ROOT}/cache",
	})
	require.NoError(t, err)

	assert.Equal(t, "/srv/lca/artifacts", s.ArtifactsDir)
	assert.Equal(t, "/srv/lca/cache", s.CacheDir)
}

func TestLoad_NormalizesLevelAndProfile(t *testing.T) {
	s, err := loadFrom(t, map[string]string{
		"LCA_LOG_LEVEL":        "warn",
		"LCA_WORKFLOW_PROFILE": "BATCH",
	})
	require.NoError(t, err)

	assert.Equal(t, "WARNING", s.LogLevel)
	assert.Equal(t, ProfileBatch, s.WorkflowProfile)
	assert.Equal(t, ProfileBatch, s.Profile().Name)
}

func TestLoad_MalformedConnectionsJSONIsFatal(t *testing.T) {
	_, err := loadFrom(t, map[string]string{"LCA_MCP_CONNECTIONS": "{not json"})

	cfgErr := requireConfigError(t, err, errors.ErrMalformedConfig, "LCA_MCP_CONNECTIONS")
	assert.Contains(t, cfgErr.Error(), "Invalid JSON (env LCA_MCP_CONNECTIONS)")
	assert.True(t, errors.IsFatal(err))
}

func TestLoad_ConnectionsMustBeObjects(t *testing.T) {
	tests := map[string]string{
		"top level list":   `["a"]`,
		"entry not object": `{"svc": "https://example.com"}`,
		"entry no url":     `{"svc": {"transport": "sse"}}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loadFrom(t, map[string]string{"LCA_MCP_CONNECTIONS": raw})
			requireConfigError(t, err, errors.ErrInvalidConfig, "LCA_MCP_CONNECTIONS")
		})
	}
}

func TestLoad_ExplicitFlowSearchEntryWins(t *testing.T) {
	s, err := loadFrom(t, map[string]string{
		"LCA_MCP_CONNECTIONS": `{
			"tiangong_lca_remote": {"transport": "sse", "url": "https://custom.example/sse"},
			"other":               {"transport": "stdio", "command": "lca-server --stdio"}
		}`,
		"TIANGONG_LCA_REMOTE_API_KEY": "ignored-for-explicit",
	})
	require.NoError(t, err)

	services := s.ServiceConfigs()
	require.Len(t, services, 2)
	flow := services["tiangong_lca_remote"]
	assert.Equal(t, TransportSSE, flow.Transport)
	assert.Equal(t, "https://custom.example/sse", flow.HTTP.URL)
	assert.Empty(t, flow.HTTP.Headers)

	other := services["other"]
	require.NotNil(t, other.Stdio)
	assert.Equal(t, "lca-server", other.Stdio.Command)
	assert.Equal(t, []string{"--stdio"}, other.Stdio.Args)
}

func TestLoad_KBRemote(t *testing.T) {
	t.Run("unset adds nothing", func(t *testing.T) {
		s, err := loadFrom(t, map[string]string{
			"LCA_MCP_CONNECTIONS": `{"TianGong_KB_Remote": {"url": "https://explicit.example/mcp"}}`,
		})
		require.NoError(t, err)

		services := s.ServiceConfigs()
		assert.Len(t, services, 2)
		assert.Equal(t, "https://explicit.example/mcp", services[DefaultKBRemoteServiceName].HTTP.URL)
		assert.Nil(t, s.KBRemote)
	})

	t.Run("set replaces explicit entry", func(t *testing.T) {
		s, err := loadFrom(t, map[string]string{
			"LCA_MCP_CONNECTIONS":        `{"TianGong_KB_Remote": {"url": "https://explicit.example/mcp"}}`,
			"TIANGONG_KB_REMOTE_URL":     "https://kb.example/mcp",
			"TIANGONG_KB_REMOTE_API_KEY": "Bearer kb-key",
			"LCA_REQUEST_TIMEOUT":        "45",
		})
		require.NoError(t, err)

		kb := s.ServiceConfigs()[DefaultKBRemoteServiceName]
		require.NotNil(t, kb.HTTP)
		assert.Equal(t, TransportStreamableHTTP, kb.Transport)
		assert.Equal(t, "https://kb.example/mcp", kb.HTTP.URL)
		assert.Equal(t, 45.0, kb.HTTP.Timeout)
		assert.Equal(t, map[string]string{"Authorization": "Bearer kb-key"}, kb.HTTP.Headers)
	})

	t.Run("custom name and timeout", func(t *testing.T) {
		s, err := loadFrom(t, map[string]string{
			"TIANGONG_KB_REMOTE_URL":          "https://kb.example/mcp",
			"TIANGONG_KB_REMOTE_SERVICE_NAME": "kb",
			"TIANGONG_KB_REMOTE_TRANSPORT":    "sse",
			"TIANGONG_KB_REMOTE_TIMEOUT":      "90",
		})
		require.NoError(t, err)

		kb, ok := s.ServiceConfigs()["kb"]
		require.True(t, ok)
		assert.Equal(t, TransportSSE, kb.Transport)
		assert.Equal(t, 90.0, kb.HTTP.Timeout)
		assert.Empty(t, kb.HTTP.Headers)
	})

	t.Run("stdio transport rejected", func(t *testing.T) {
		_, err := loadFrom(t, map[string]string{
			"TIANGONG_KB_REMOTE_URL":       "https://kb.example/mcp",
			"TIANGONG_KB_REMOTE_TRANSPORT": "stdio",
		})
		requireConfigError(t, err, errors.ErrInvalidConfig, "TIANGONG_KB_REMOTE_TRANSPORT")
	})
}

func TestLoad_InvalidValuesNameVariable(t *testing.T) {
	t.Run("base url", func(t *testing.T) {
		_, err := loadFrom(t, map[string]string{"LCA_MCP_BASE_URL": "not a url"})
		requireConfigError(t, err, errors.ErrInvalidConfig, "TIANGONG_LCA_REMOTE_URL")
	})
	t.Run("transport", func(t *testing.T) {
		_, err := loadFrom(t, map[string]string{"LCA_MCP_TRANSPORT": "stdio"})
		requireConfigError(t, err, errors.ErrInvalidConfig, "TIANGONG_LCA_REMOTE_TRANSPORT")
	})
}

func TestLoad_Idempotent(t *testing.T) {
	snap := environ.FromMap(map[string]string{
		"TIANGONG_LCA_REMOTE_API_KEY": "abc",
		"TIANGONG_KB_REMOTE_URL":      "https://kb.example/mcp",
		"LCA_MCP_CONNECTIONS":         `{"extra": {"transport": "websocket", "url": "wss://ws.example", "sse_read_timeout": 5}}`,
	})

	first, err := Load(snap)
	require.NoError(t, err)
	second, err := Load(snap)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotSame(t, first, second)
}

func TestSettings_ServiceConfigsReturnsCopy(t *testing.T) {
	s, err := loadFrom(t, map[string]string{"TIANGONG_LCA_REMOTE_API_KEY": "abc"})
	require.NoError(t, err)

	services := s.ServiceConfigs()
	services[DefaultFlowSearchServiceName].HTTP.Headers["Authorization"] = "tampered"
	delete(services, DefaultFlowSearchServiceName)

	again := s.ServiceConfigs()
	require.Contains(t, again, DefaultFlowSearchServiceName)
	assert.Equal(t, "Bearer abc", again[DefaultFlowSearchServiceName].HTTP.Headers["Authorization"])
}

func TestSettings_ServiceMaps(t *testing.T) {
	s, err := loadFrom(t, map[string]string{"TIANGONG_LCA_REMOTE_API_KEY": "abc"})
	require.NoError(t, err)

	m := s.ServiceMaps()[DefaultFlowSearchServiceName]
	assert.Equal(t, "streamable_http", m["transport"])
	assert.Equal(t, DefaultMCPBaseURL, m["url"])
	assert.Equal(t, 30.0, m["timeout"])
	assert.Equal(t, map[string]string{"Authorization": "Bearer abc"}, m["headers"])
}

func TestSettings_Redacted(t *testing.T) {
	s, err := loadFrom(t, map[string]string{
		"TIANGONG_LCA_REMOTE_API_KEY": "super-secret-key",
		"TIANGONG_KB_REMOTE_URL":      "https://kb.example/mcp",
		"TIANGONG_KB_REMOTE_API_KEY":  "kb-secret-key",
	})
	require.NoError(t, err)

	red := s.Redacted()
	assert.NotContains(t, red.MCPAPIKey, "secret")
	assert.NotContains(t, red.KBRemote.HTTP.Headers["Authorization"], "secret")
	for _, conn := range red.ServiceConfigs() {
		assert.NotContains(t, conn.HTTP.Headers["Authorization"], "secret")
	}

	assert.Equal(t, "super-secret-key", s.MCPAPIKey)
	assert.Equal(t, "Bearer kb-secret-key", s.KBRemote.HTTP.Headers["Authorization"])
}

func TestLoadAndPrepare_CreatesDirectories(t *testing.T) {
	root := t.TempDir()
	artifacts := filepath.Join(root, "out")
	cache := filepath.Join(root, "out", "nested", "cache")
	snap := environ.FromMap(map[string]string{
		"LCA_ARTIFACTS_DIR": artifacts,
		"LCA_CACHE_DIR":     cache,
	})

	s, err := LoadAndPrepare(snap)
	require.NoError(t, err)
	for _, dir := range []string{artifacts, cache} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	require.NoError(t, s.EnsureDirectories())
	_, err = LoadAndPrepare(snap)
	require.NoError(t, err)
}

func TestLoadAndPrepare_DirectoryErrorIsReported(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := LoadAndPrepare(environ.FromMap(map[string]string{
		"LCA_ARTIFACTS_DIR": filepath.Join(blocker, "artifacts"),
		"LCA_CACHE_DIR":     filepath.Join(root, "cache"),
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prepare workflow directories")
	assert.False(t, errors.IsFatal(err))
}
