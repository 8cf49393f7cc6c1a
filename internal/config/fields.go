package config

// Kind describes how a field's raw text is coerced.
type Kind string

const (
	KindString Kind = "string"
	KindSecret Kind = "secret"
	KindFloat  Kind = "float"
	KindInt    Kind = "int"
	KindBool   Kind = "bool"
	KindJSON   Kind = "json"
	KindPath   Kind = "path"
)

// Field declares one logical setting: its ordered alias list (first set,
// non-blank alias wins), its coercion and whether it is mandatory.
type Field struct {
	Key      string
	Aliases  []string
	Kind     Kind
	Required bool
	Default  string
	Help     string
}

// Env returns the primary variable name, the one operators are told to set.
func (f Field) Env() string {
	if len(f.Aliases) == 0 {
		return ""
	}
	return f.Aliases[0]
}

// Group is a named table of fields belonging to one service family.
type Group struct {
	Name   string
	Fields []Field
}

// Remote search (flow search MCP endpoint) and general workflow settings.
var (
	FieldMCPBaseURL     = Field{Key: "mcp.base_url", Aliases: []string{"TIANGONG_LCA_REMOTE_URL", "LCA_MCP_BASE_URL"}, Kind: KindString, Default: DefaultMCPBaseURL, Help: "Flow search MCP endpoint"}
	FieldMCPAPIKey      = Field{Key: "mcp.api_key", Aliases: []string{"TIANGONG_LCA_REMOTE_API_KEY", "TIANGONG_LCA_REMOTE_AUTHORIZATION", "LCA_MCP_API_KEY"}, Kind: KindSecret, Help: "Flow search API key, a leading \"Bearer \" is stripped"}
	FieldMCPTransport   = Field{Key: "mcp.transport", Aliases: []string{"TIANGONG_LCA_REMOTE_TRANSPORT", "LCA_MCP_TRANSPORT"}, Kind: KindString, Default: string(TransportStreamableHTTP)}
	FieldMCPConnections = Field{Key: "mcp.connections", Aliases: []string{"LCA_MCP_CONNECTIONS"}, Kind: KindJSON, Help: "JSON object of named MCP connections"}

	FieldFlowSearchServiceName = Field{Key: "flow_search.service_name", Aliases: []string{"TIANGONG_LCA_REMOTE_SERVICE_NAME", "LCA_FLOW_SEARCH_SERVICE_NAME"}, Kind: KindString, Default: DefaultFlowSearchServiceName}
	FieldFlowSearchToolName    = Field{Key: "flow_search.tool_name", Aliases: []string{"LCA_FLOW_SEARCH_TOOL_NAME"}, Kind: KindString, Default: DefaultFlowSearchToolName}
	FieldFlowSearchMaxParallel = Field{Key: "flow_search.max_parallel", Aliases: []string{"LCA_FLOW_SEARCH_MAX_PARALLEL"}, Kind: KindInt, Default: "1"}
	FieldFlowSearchStateCode   = Field{Key: "flow_search.state_code", Aliases: []string{"LCA_FLOW_SEARCH_STATE_CODE"}, Kind: KindInt, Default: "100"}
	FieldFlowSearchTimeout     = Field{Key: "flow_search.timeout", Aliases: []string{"TIANGONG_LCA_REMOTE_TIMEOUT", "LCA_FLOW_SEARCH_TIMEOUT"}, Kind: KindFloat, Help: "Seconds, falls back to LCA_REQUEST_TIMEOUT"}

	FieldRequestTimeout  = Field{Key: "request_timeout", Aliases: []string{"LCA_REQUEST_TIMEOUT"}, Kind: KindFloat, Default: "30"}
	FieldMaxRetries      = Field{Key: "max_retries", Aliases: []string{"LCA_MAX_RETRIES"}, Kind: KindInt, Default: "3"}
	FieldRetryBackoff    = Field{Key: "retry_backoff", Aliases: []string{"LCA_RETRY_BACKOFF"}, Kind: KindFloat, Default: "0.5"}
	FieldLogLevel        = Field{Key: "log_level", Aliases: []string{"LCA_LOG_LEVEL"}, Kind: KindString, Default: DefaultLogLevel}
	FieldWorkflowProfile = Field{Key: "workflow_profile", Aliases: []string{"LCA_WORKFLOW_PROFILE"}, Kind: KindString, Default: ProfileDefault, Help: "default, batch or debug"}
	FieldMaxConcurrency  = Field{Key: "max_concurrency", Aliases: []string{"LCA_MAX_CONCURRENCY"}, Kind: KindInt, Default: "4"}
	FieldCacheDir        = Field{Key: "cache_dir", Aliases: []string{"LCA_CACHE_DIR"}, Kind: KindPath, Default: DefaultCacheDir}
	FieldArtifactsDir    = Field{Key: "artifacts_dir", Aliases: []string{"LCA_ARTIFACTS_DIR"}, Kind: KindPath, Default: DefaultArtifactsDir}
	FieldFlowHintCatalog = Field{Key: "flow_hint_catalog_path", Aliases: []string{"LCA_FLOW_HINT_CATALOG_PATH"}, Kind: KindPath}
	FieldStage2Retries   = Field{Key: "stage2_exchange_retry_attempts", Aliases: []string{"LCA_STAGE2_EXCHANGE_RETRY_ATTEMPTS"}, Kind: KindInt, Default: "2"}
)

// Knowledge-base MCP remote, merged into the service registry when its URL is set.
var (
	FieldKBRemoteURL         = Field{Key: "kb_remote.url", Aliases: []string{"TIANGONG_KB_REMOTE_URL"}, Kind: KindString, Help: "Adds the knowledge-base MCP service when set"}
	FieldKBRemoteTransport   = Field{Key: "kb_remote.transport", Aliases: []string{"TIANGONG_KB_REMOTE_TRANSPORT"}, Kind: KindString, Default: string(TransportStreamableHTTP)}
	FieldKBRemoteServiceName = Field{Key: "kb_remote.service_name", Aliases: []string{"TIANGONG_KB_REMOTE_SERVICE_NAME"}, Kind: KindString, Default: DefaultKBRemoteServiceName}
	FieldKBRemoteAPIKey      = Field{Key: "kb_remote.api_key", Aliases: []string{"TIANGONG_KB_REMOTE_API_KEY", "TIANGONG_KB_REMOTE_AUTHORIZATION"}, Kind: KindSecret}
	FieldKBRemoteTimeout     = Field{Key: "kb_remote.timeout", Aliases: []string{"TIANGONG_KB_REMOTE_TIMEOUT"}, Kind: KindFloat, Help: "Seconds, falls back to LCA_REQUEST_TIMEOUT"}
)

// Knowledge-base ingestion API.
var (
	FieldKBBaseURL             = Field{Key: "kb.base_url", Aliases: []string{"TIANGONG_KB_BASE_URL", "KB_BASE_URL"}, Kind: KindString, Required: true}
	FieldKBDatasetID           = Field{Key: "kb.dataset_id", Aliases: []string{"TIANGONG_KB_DATASET_ID", "KB_DATASET_ID"}, Kind: KindString, Required: true}
	FieldKBAPIKey              = Field{Key: "kb.api_key", Aliases: []string{"TIANGONG_KB_API_KEY", "KB_API_KEY"}, Kind: KindSecret, Required: true}
	FieldKBTimeout             = Field{Key: "kb.timeout", Aliases: []string{"TIANGONG_KB_TIMEOUT", "KB_TIMEOUT"}, Kind: KindFloat, Default: "60"}
	FieldKBMetadataFields      = Field{Key: "kb.metadata_fields", Aliases: []string{"TIANGONG_KB_METADATA_FIELDS", "KB_METADATA_FIELDS"}, Kind: KindJSON, Help: "JSON list of {name,type,source,value,default,join_with}"}
	FieldKBPipelineInputs      = Field{Key: "kb.pipeline_inputs", Aliases: []string{"TIANGONG_KB_PIPELINE_INPUTS", "KB_PIPELINE_INPUTS"}, Kind: KindJSON, Help: "JSON object"}
	FieldKBPipelineDatasource  = Field{Key: "kb.pipeline_datasource_type", Aliases: []string{"TIANGONG_KB_PIPELINE_DATASOURCE_TYPE", "KB_PIPELINE_DATASOURCE_TYPE"}, Kind: KindString, Default: DefaultKBDatasourceType}
	FieldKBPipelineStartNode   = Field{Key: "kb.pipeline_start_node_id", Aliases: []string{"TIANGONG_KB_PIPELINE_START_NODE_ID", "KB_PIPELINE_START_NODE_ID"}, Kind: KindString}
	FieldKBPipelineResponse    = Field{Key: "kb.pipeline_response_mode", Aliases: []string{"TIANGONG_KB_PIPELINE_RESPONSE_MODE", "KB_PIPELINE_RESPONSE_MODE"}, Kind: KindString, Default: DefaultKBResponseMode}
	FieldKBPipelineIsPublished = Field{Key: "kb.pipeline_is_published", Aliases: []string{"TIANGONG_KB_PIPELINE_IS_PUBLISHED", "KB_PIPELINE_IS_PUBLISHED"}, Kind: KindBool, Default: "true"}
)

// Object storage bucket. Required fields are checked in declaration order.
var (
	FieldMinioEndpoint     = Field{Key: "minio.endpoint", Aliases: []string{"TIANGONG_MINIO_ENDPOINT", "MINIO_ENDPOINT"}, Kind: KindString, Required: true, Help: "host:port or URL; the scheme selects TLS"}
	FieldMinioAccessKey    = Field{Key: "minio.access_key", Aliases: []string{"TIANGONG_MINIO_ACCESS_KEY", "MINIO_ACCESS_KEY"}, Kind: KindString, Required: true}
	FieldMinioSecretKey    = Field{Key: "minio.secret_key", Aliases: []string{"TIANGONG_MINIO_SECRET_KEY", "MINIO_SECRET_KEY"}, Kind: KindSecret, Required: true}
	FieldMinioBucketName   = Field{Key: "minio.bucket_name", Aliases: []string{"TIANGONG_MINIO_BUCKET_NAME", "MINIO_BUCKET_NAME"}, Kind: KindString, Required: true}
	FieldMinioPrefix       = Field{Key: "minio.prefix", Aliases: []string{"TIANGONG_MINIO_PREFIX", "MINIO_PREFIX"}, Kind: KindString}
	FieldMinioSecure       = Field{Key: "minio.secure", Aliases: []string{"TIANGONG_MINIO_SECURE", "MINIO_SECURE"}, Kind: KindBool, Help: "Overrides the TLS choice derived from the endpoint"}
	FieldMinioSessionToken = Field{Key: "minio.session_token", Aliases: []string{"TIANGONG_MINIO_SESSION_TOKEN", "MINIO_SESSION_TOKEN"}, Kind: KindSecret}
)

// Document extraction service.
var (
	FieldExtractionURL          = Field{Key: "extraction.url", Aliases: []string{"TIANGONG_MINERU_WITH_IMAGE_URL", "MINERU_WITH_IMAGES_URL", "MINERU_URL"}, Kind: KindString, Required: true}
	FieldExtractionAPIKey       = Field{Key: "extraction.api_key", Aliases: []string{"TIANGONG_MINERU_WITH_IMAGE_API_KEY", "MINERU_WITH_IMAGES_API_KEY", "MINERU_API_KEY", "TIANGONG_MINERU_WITH_IMAGE_AUTHORIZATION"}, Kind: KindSecret}
	FieldExtractionAPIKeyHeader = Field{Key: "extraction.api_key_header", Aliases: []string{"TIANGONG_MINERU_WITH_IMAGE_API_KEY_HEADER", "MINERU_WITH_IMAGES_API_KEY_HEADER"}, Kind: KindString, Default: "Authorization"}
	FieldExtractionAPIKeyPrefix = Field{Key: "extraction.api_key_prefix", Aliases: []string{"TIANGONG_MINERU_WITH_IMAGE_API_KEY_PREFIX", "MINERU_WITH_IMAGES_API_KEY_PREFIX"}, Kind: KindString, Default: "Bearer"}
	FieldExtractionTimeout      = Field{Key: "extraction.timeout", Aliases: []string{"TIANGONG_MINERU_WITH_IMAGE_TIMEOUT", "MINERU_WITH_IMAGES_TIMEOUT"}, Kind: KindFloat, Default: "180"}
	FieldExtractionProvider     = Field{Key: "extraction.provider", Aliases: []string{"TIANGONG_MINERU_WITH_IMAGE_PROVIDER", "MINERU_WITH_IMAGES_PROVIDER"}, Kind: KindString}
	FieldExtractionModel        = Field{Key: "extraction.model", Aliases: []string{"TIANGONG_MINERU_WITH_IMAGE_MODEL", "MINERU_WITH_IMAGES_MODEL"}, Kind: KindString}
	FieldExtractionChunkType    = Field{Key: "extraction.chunk_type", Aliases: []string{"TIANGONG_MINERU_WITH_IMAGE_CHUNK_TYPE", "MINERU_WITH_IMAGES_CHUNK_TYPE"}, Kind: KindBool}
	FieldExtractionVerifySSL    = Field{Key: "extraction.verify_ssl", Aliases: []string{"TIANGONG_MINERU_WITH_IMAGE_VERIFY_SSL", "MINERU_WITH_IMAGES_VERIFY_SSL"}, Kind: KindBool, Default: "true"}
)

// Groups returns every declared field, grouped by service family.
func Groups() []Group {
	return []Group{
		{Name: "workflow", Fields: []Field{
			FieldMCPBaseURL, FieldMCPAPIKey, FieldMCPTransport, FieldMCPConnections,
			FieldFlowSearchServiceName, FieldFlowSearchToolName, FieldFlowSearchMaxParallel,
			FieldFlowSearchStateCode, FieldFlowSearchTimeout,
			FieldRequestTimeout, FieldMaxRetries, FieldRetryBackoff, FieldLogLevel,
			FieldWorkflowProfile, FieldMaxConcurrency, FieldCacheDir, FieldArtifactsDir,
			FieldFlowHintCatalog, FieldStage2Retries,
		}},
		{Name: "kb_remote", Fields: []Field{
			FieldKBRemoteURL, FieldKBRemoteTransport, FieldKBRemoteServiceName,
			FieldKBRemoteAPIKey, FieldKBRemoteTimeout,
		}},
		{Name: "kb", Fields: []Field{
			FieldKBBaseURL, FieldKBDatasetID, FieldKBAPIKey, FieldKBTimeout,
			FieldKBMetadataFields, FieldKBPipelineInputs, FieldKBPipelineDatasource,
			FieldKBPipelineStartNode, FieldKBPipelineResponse, FieldKBPipelineIsPublished,
		}},
		{Name: "storage", Fields: []Field{
			FieldMinioEndpoint, FieldMinioAccessKey, FieldMinioSecretKey, FieldMinioBucketName,
			FieldMinioPrefix, FieldMinioSecure, FieldMinioSessionToken,
		}},
		{Name: "extraction", Fields: []Field{
			FieldExtractionURL, FieldExtractionAPIKey, FieldExtractionAPIKeyHeader,
			FieldExtractionAPIKeyPrefix, FieldExtractionTimeout, FieldExtractionProvider,
			FieldExtractionModel, FieldExtractionChunkType, FieldExtractionVerifySSL,
		}},
	}
}
