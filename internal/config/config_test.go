package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsWithEnvKey(t *testing.T) {
	t.Setenv("API_KEY", "env-key")
	t.Setenv("LLM_PROVIDER", "")

	config, err := LoadConfig("missing", t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "gemini", config.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", config.LLM.Model)
	assert.Equal(t, "env-key", config.LLM.Gemini.Key)
	assert.Equal(t, float32(0.5), config.LLM.Temperature)
	assert.Equal(t, float32(0.95), config.LLM.TopP)
	assert.Equal(t, 3, config.Resilience.FailureThreshold)
	assert.Equal(t, 30*time.Second, config.Resilience.ResetTimeout)
	assert.Equal(t, 3, config.Resilience.MaxRetries)
	assert.Equal(t, time.Second, config.Resilience.InitialDelay)
	assert.Zero(t, config.Cache.TTL, "result cache is opt-in")
}

func TestLoadConfig_MissingKeyIsFatal(t *testing.T) {
	t.Setenv("API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("PROMPTCODER_LLM_GEMINI_KEY", "")

	_, err := LoadConfig("missing", t.TempDir())

	var configErr *ConfigurationError
	require.ErrorAs(t, err, &configErr)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Equal(t, "llm.gemini.key", configErr.Field)
}

func TestLoadConfig_MockNeedsNoKey(t *testing.T) {
	t.Setenv("API_KEY", "")
	t.Setenv("LLM_PROVIDER", "mock")

	config, err := LoadConfig("missing", t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, "mock", config.LLM.Provider)
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: 9090
llm:
  provider: openai
  model: gpt-4o-mini
  openai:
    key: file-key
resilience:
  failure_threshold: 5
  reset_timeout: 10s
  initial_delay: 250ms
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.yaml"), []byte(yaml), 0o600))

	config, err := LoadConfig("test", dir)

	require.NoError(t, err)
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "openai", config.LLM.Provider)
	assert.Equal(t, "file-key", config.ActiveKey())
	assert.Equal(t, 5, config.Resilience.FailureThreshold)
	assert.Equal(t, 10*time.Second, config.Resilience.ResetTimeout)
	assert.Equal(t, 250*time.Millisecond, config.Resilience.InitialDelay)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.yaml"), []byte("server:\n  port: 9090\n"), 0o600))
	t.Setenv("API_KEY", "k")
	t.Setenv("PROMPTCODER_SERVER_PORT", "7070")

	config, err := LoadConfig("test", dir)

	require.NoError(t, err)
	assert.Equal(t, 7070, config.Server.Port)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	t.Setenv("API_KEY", "k")
	config, err := LoadConfig("missing", t.TempDir())
	require.NoError(t, err)

	config.LLM.Provider = "bard"
	var configErr *ConfigurationError
	require.ErrorAs(t, config.Validate(), &configErr)
	assert.Contains(t, configErr.Field, "Provider")

	config.LLM.Provider = "gemini"
	config.Resilience.MaxRetries = 0
	require.ErrorAs(t, config.Validate(), &configErr)
	assert.Contains(t, configErr.Field, "MaxRetries")
}
