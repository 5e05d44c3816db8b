package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.Gemini.Enabled)
	assert.True(t, cfg.GLM.Enabled)
	assert.False(t, cfg.Anthropic.Enabled)

	assert.Equal(t, 6, cfg.Gemini.Tuning.MinNextActions)
	assert.Equal(t, 7, cfg.GLM.Tuning.MinNextActions)
	assert.Less(t, cfg.GLM.Tuning.DraftMaxTokens, cfg.Gemini.Tuning.DraftMaxTokens)

	assert.Equal(t, 6, cfg.Compare.ScoreDelta)
	assert.Equal(t, 220, cfg.Compare.LengthDelta)
	assert.Equal(t, 10, cfg.Compare.RegressionGuard)
	assert.Equal(t, 92, cfg.Compare.ScorerRepairThreshold)
}

func TestLoadMissingDefaultPathFallsBackToDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	cfg, err := Load(DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, "grounds", cfg.Name)
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Unwrap(err)))
}

func TestLoadLayersFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grounds.yaml")
	data := `
name: custom
glm:
  enabled: false
gemini:
  model: pro
  tuning:
    min_next_actions: 8
compare:
  score_delta: 9
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "custom", cfg.Name)
	assert.False(t, cfg.GLM.Enabled)
	assert.Equal(t, "pro", cfg.Gemini.Model)
	assert.Equal(t, 8, cfg.Gemini.Tuning.MinNextActions)
	assert.Equal(t, 9, cfg.Compare.ScoreDelta)
	// Untouched values keep their defaults.
	assert.Equal(t, 220, cfg.Compare.LengthDelta)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gemini: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvFillsMissingKeysOnly(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-gemini")
	t.Setenv("ZAI_API_KEY", "env-zai")

	path := filepath.Join(t.TempDir(), "grounds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gemini:\n  api_key: file-gemini\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-gemini", cfg.Gemini.APIKey, "env must not override an explicit file value")
	assert.Equal(t, "env-zai", cfg.GLM.APIKey)
}

func TestTimeoutDuration(t *testing.T) {
	assert.Equal(t, 30*time.Second, BackendConfig{Timeout: "30s"}.TimeoutDuration())
	assert.Equal(t, 120*time.Second, BackendConfig{Timeout: ""}.TimeoutDuration())
	assert.Equal(t, 120*time.Second, BackendConfig{Timeout: "soon"}.TimeoutDuration())
	assert.Equal(t, 120*time.Second, BackendConfig{Timeout: "-5s"}.TimeoutDuration())
}

func TestBackendsMap(t *testing.T) {
	cfg := Default()
	m := cfg.Backends()
	require.Len(t, m, 3)
	assert.Equal(t, cfg.Gemini, m["gemini"])
	assert.Equal(t, cfg.GLM, m["glm"])
	assert.Equal(t, cfg.Anthropic, m["anthropic"])
}
