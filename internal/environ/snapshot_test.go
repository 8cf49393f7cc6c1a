package environ

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirst_PrecedenceFollowsAliasOrder(t *testing.T) {
	snap := FromMap(map[string]string{
		"TIANGONG_KB_BASE_URL": "https://primary.example",
		"KB_BASE_URL":          "https://alias.example",
	})

	got, ok := snap.First("TIANGONG_KB_BASE_URL", "KB_BASE_URL")
	require.True(t, ok)
	assert.Equal(t, "https://primary.example", got)

	got, ok = snap.First("KB_BASE_URL", "TIANGONG_KB_BASE_URL")
	require.True(t, ok)
	assert.Equal(t, "https://alias.example", got)
}

func TestFirst_SkipsBlankAndUnset(t *testing.T) {
	snap := FromMap(map[string]string{
		"TIANGONG_MINIO_ENDPOINT": "   ",
		"MINIO_ENDPOINT":          "  minio:9000 ",
	})

	name, got, ok := snap.FirstNamed("UNSET_VAR", "TIANGONG_MINIO_ENDPOINT", "MINIO_ENDPOINT")
	require.True(t, ok)
	assert.Equal(t, "MINIO_ENDPOINT", name)
	assert.Equal(t, "minio:9000", got)

	_, ok = snap.First("UNSET_VAR", "TIANGONG_MINIO_ENDPOINT")
	assert.False(t, ok)

	_, ok = snap.First()
	assert.False(t, ok)
}

func TestCapture_ProcessEnvIsFrozen(t *testing.T) {
	t.Setenv("LCAFLOW_SNAPSHOT_TEST", "before")

	snap, err := Capture()
	require.NoError(t, err)

	t.Setenv("LCAFLOW_SNAPSHOT_TEST", "after")

	got, ok := snap.Lookup("LCAFLOW_SNAPSHOT_TEST")
	require.True(t, ok)
	assert.Equal(t, "before", got)
}

func TestCapture_LayerPrecedence(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "env.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
LCAFLOW_LAYER_A: from-yaml
LCAFLOW_LAYER_B: from-yaml
LCAFLOW_LAYER_C: from-yaml
LCAFLOW_LAYER_D: from-yaml
LCAFLOW_MAX: 8
LCAFLOW_CONNECTIONS:
  svc:
    transport: sse
`), 0o644))

	dotenvPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dotenvPath, []byte("LCAFLOW_LAYER_B=from-dotenv\nLCAFLOW_LAYER_C=from-dotenv\nLCAFLOW_LAYER_D=from-dotenv\n"), 0o644))

	t.Setenv("LCAFLOW_LAYER_C", "from-process")
	t.Setenv("LCAFLOW_LAYER_D", "from-process")

	snap, err := Capture(
		WithYAMLFile(yamlPath),
		WithDotenv(dotenvPath),
		WithOverrides(map[string]string{"LCAFLOW_LAYER_D": "from-override"}),
	)
	require.NoError(t, err)

	for name, want := range map[string]string{
		"LCAFLOW_LAYER_A": "from-yaml",
		"LCAFLOW_LAYER_B": "from-dotenv",
		"LCAFLOW_LAYER_C": "from-process",
		"LCAFLOW_LAYER_D": "from-override",
		"LCAFLOW_MAX":     "8",
	} {
		got, ok := snap.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	got, ok := snap.Lookup("LCAFLOW_CONNECTIONS")
	require.True(t, ok)
	assert.JSONEq(t, `{"svc":{"transport":"sse"}}`, got)
}

func TestCapture_MissingFilesFail(t *testing.T) {
	_, err := Capture(WithDotenv(filepath.Join(t.TempDir(), "missing.env")))
	require.Error(t, err)

	_, err = Capture(WithYAMLFile(filepath.Join(t.TempDir(), "missing.yaml")))
	require.Error(t, err)
}

func TestCapture_OnlyChangedFlagsOverride(t *testing.T) {
	t.Setenv("LCAFLOW_FLAG_PROFILE", "batch")
	t.Setenv("LCAFLOW_FLAG_CONCURRENCY", "6")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("workflow-profile", "", "")
	fs.String("max-concurrency", "", "")
	fs.String("unmapped", "", "")
	require.NoError(t, fs.Parse([]string{"--max-concurrency", "12", "--unmapped", "x"}))

	snap, err := Capture(WithFlags(fs, map[string]string{
		"workflow-profile": "LCAFLOW_FLAG_PROFILE",
		"max-concurrency":  "LCAFLOW_FLAG_CONCURRENCY",
	}))
	require.NoError(t, err)

	got, _ := snap.Lookup("LCAFLOW_FLAG_PROFILE")
	assert.Equal(t, "batch", got)
	got, _ = snap.Lookup("LCAFLOW_FLAG_CONCURRENCY")
	assert.Equal(t, "12", got)
	_, ok := snap.Lookup("unmapped")
	assert.False(t, ok)
}

func TestWith_DoesNotMutateOriginal(t *testing.T) {
	base := FromMap(map[string]string{"A": "1"})
	derived := base.With(map[string]string{"A": "2", "B": "3"})

	got, _ := base.Lookup("A")
	assert.Equal(t, "1", got)
	_, ok := base.Lookup("B")
	assert.False(t, ok)

	got, _ = derived.Lookup("A")
	assert.Equal(t, "2", got)
	assert.Equal(t, []string{"A", "B"}, derived.Names())
}

func TestParseAssignments(t *testing.T) {
	got, err := ParseAssignments([]string{"LCA_MAX_RETRIES=5", "KB_PIPELINE_INPUTS={\"a\":\"b=c\"}"})
	require.NoError(t, err)
	assert.Equal(t, "5", got["LCA_MAX_RETRIES"])
	assert.Equal(t, `{"a":"b=c"}`, got["KB_PIPELINE_INPUTS"])

	_, err = ParseAssignments([]string{"novalue"})
	require.Error(t, err)

	_, err = ParseAssignments([]string{"=x"})
	require.Error(t, err)
}

func TestCapture_BlankProcessVarDoesNotShadowDotenv(t *testing.T) {
	dotenvPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(dotenvPath, []byte("LCAFLOW_BLANK=from-dotenv\n"), 0o644))
	t.Setenv("LCAFLOW_BLANK", "  ")

	snap, err := Capture(WithDotenv(dotenvPath))
	require.NoError(t, err)

	got, ok := snap.Lookup("LCAFLOW_BLANK")
	require.True(t, ok)
	assert.Equal(t, "from-dotenv", got)
}
