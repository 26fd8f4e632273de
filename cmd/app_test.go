package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmgate/promptcoder/circuitbreaker"
	"github.com/llmgate/promptcoder/internal/config"
	"github.com/llmgate/promptcoder/models"
	"github.com/llmgate/promptcoder/refine"
)

func mockConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, AllowedOrigins: []string{"*"}},
		LLM: config.LLMConfigs{
			Provider:    "mock",
			Model:       "mock-model",
			Temperature: 0.5,
			TopP:        0.95,
			MaxTokens:   1024,
		},
		Resilience: config.ResilienceConfig{
			FailureThreshold: 3,
			ResetTimeout:     30 * time.Second,
			MaxRetries:       3,
			InitialDelay:     time.Millisecond,
		},
		RateLimit: config.RateLimitConfig{PerSecond: 0.001, Burst: 1},
		Cache:     config.CacheConfig{TTL: time.Minute},
	}
}

func newTestApp(t *testing.T, appConfig *config.Config) (*app, *prometheus.Registry) {
	registry := prometheus.NewRegistry()
	a, err := newApp(context.Background(), appConfig, registry)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a, registry
}

func TestNewApp_MockPipeline(t *testing.T) {
	a, registry := newTestApp(t, mockConfig())

	refined, err := a.service.Refine(context.Background(), "write unit tests")

	require.NoError(t, err)
	assert.Contains(t, refined.Prompt, "write unit tests")
	assert.Len(t, refined.Improvements, 2)
	assert.Equal(t, "Mock", a.client.Provider())
	assert.Equal(t, circuitbreaker.StateClosed, a.breaker.State())

	count, err := testutil.GatherAndCount(registry, "completion_calls_total", "circuit_breaker_state", "refine_cache_lookups_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestNewApp_BreakerGaugeFollowsState(t *testing.T) {
	appConfig := mockConfig()
	appConfig.Mock.FailureRate = 1
	appConfig.Resilience.FailureThreshold = 1
	appConfig.Cache.TTL = 0
	a, registry := newTestApp(t, appConfig)

	_, err := a.service.Refine(context.Background(), "anything")
	require.Error(t, err)

	expected := `
# HELP circuit_breaker_state Dynamically created gauge
# TYPE circuit_breaker_state gauge
circuit_breaker_state{provider="Mock"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "circuit_breaker_state"))
}

func TestNewApp_DefaultConfigSendsEveryRefine(t *testing.T) {
	t.Setenv("API_KEY", "")
	t.Setenv("LLM_PROVIDER", "mock")
	appConfig, err := config.LoadConfig("missing", t.TempDir())
	require.NoError(t, err)
	a, registry := newTestApp(t, appConfig)

	for i := 0; i < 2; i++ {
		_, err := a.service.Refine(context.Background(), "same idea")
		require.NoError(t, err)
	}

	expected := `
# HELP completion_calls_total Dynamically created counter
# TYPE completion_calls_total counter
completion_calls_total{outcome="success",provider="Mock"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "completion_calls_total"))
}

func TestNewApp_UnsupportedProvider(t *testing.T) {
	appConfig := mockConfig()
	appConfig.LLM.Provider = "bard"

	_, err := newApp(context.Background(), appConfig, prometheus.NewRegistry())

	var configErr *config.ConfigurationError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "llm.provider", configErr.Field)
}

func TestRouter_EndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, _ := newTestApp(t, mockConfig())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	router := newRouter(ctx, a)

	refineReq := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/refine", strings.NewReader(`{"prompt":"summarize logs"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "192.0.2.1:5555"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := refineReq()
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "summarize logs")
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	assert.Equal(t, http.StatusTooManyRequests, refineReq().Code, "burst of one")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.JSONEq(t, `{"status":"ok","circuit":"CLOSED"}`, w.Body.String())
}

func TestBuildRefineRequest_ArgsAndStdin(t *testing.T) {
	cmd := &cobra.Command{}

	request, err := buildRefineRequest(cmd, []string{"write", "a", "haiku"})
	require.NoError(t, err)
	assert.Equal(t, models.RefinePromptRequest{Mode: refine.ModeSimple, Prompt: "write a haiku"}, request)

	cmd.SetIn(strings.NewReader("from stdin\n"))
	request, err = buildRefineRequest(cmd, nil)
	require.NoError(t, err)
	assert.Equal(t, "from stdin\n", request.Prompt)
}

func TestBuildRefineRequest_StructuredFlags(t *testing.T) {
	t.Cleanup(func() { fields = models.PromptFields{} })
	cmd := &cobra.Command{}
	cmd.Flags().StringVar(&fields.Objective, "objective", "", "")
	require.NoError(t, cmd.Flags().Set("objective", "explain goroutines"))

	request, err := buildRefineRequest(cmd, []string{"ignored"})

	require.NoError(t, err)
	assert.Equal(t, refine.ModeStructured, request.Mode)
	assert.Equal(t, "explain goroutines", request.Fields.Objective)
}

type stubRefiner struct {
	result models.RefinedPrompt
}

func (s stubRefiner) RefineRequest(ctx context.Context, request models.RefinePromptRequest) (models.RefinedPrompt, error) {
	return s.result, nil
}

func TestRunRefine_PrintsPromptAndImprovements(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	var out bytes.Buffer
	cmd.SetOut(&out)

	err := runRefine(cmd, stubRefiner{result: models.RefinedPrompt{
		Prompt:       "You are a poet.",
		Improvements: []string{"Added a role"},
	}}, models.RefinePromptRequest{Prompt: "poem"})

	require.NoError(t, err)
	assert.Equal(t, "You are a poet.\n\nKey improvements:\n  - Added a role\n", out.String())
}
