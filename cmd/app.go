package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/llmgate/promptcoder/circuitbreaker"
	"github.com/llmgate/promptcoder/claude"
	"github.com/llmgate/promptcoder/gemini"
	googlemonitoring "github.com/llmgate/promptcoder/googleMonitoring"
	"github.com/llmgate/promptcoder/internal/config"
	"github.com/llmgate/promptcoder/mockllm"
	"github.com/llmgate/promptcoder/openai"
	"github.com/llmgate/promptcoder/refine"
	"github.com/llmgate/promptcoder/retryclient"
)

// app is the wired refinement pipeline shared by serve and refine.
type app struct {
	config   *config.Config
	breaker  *circuitbreaker.CircuitBreaker
	client   *retryclient.RetryingClient
	service  *refine.Service
	recorder *googlemonitoring.MonitoringClient
	closers  []func() error
}

func (a *app) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			slog.Warn("failed to close client", "error", err)
		}
	}
}

// newApp builds transport, breaker, retrying client and service from
// appConfig. A nil registry records into the prometheus default registry.
func newApp(ctx context.Context, appConfig *config.Config, registry *prometheus.Registry) (*app, error) {
	a := &app{config: appConfig}

	transport, err := a.newTransport(ctx)
	if err != nil {
		return nil, err
	}

	if appConfig.GoogleService.ProjectId != "" {
		a.recorder, err = googlemonitoring.NewMonitoringClient(ctx, appConfig.GoogleService.ProjectId, appConfig.GoogleService.JsonKey, registry)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, a.recorder.Close)
	} else {
		a.recorder = googlemonitoring.NewRecorder(registry)
	}

	resilience := appConfig.Resilience
	a.breaker = circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{
		FailureThreshold: resilience.FailureThreshold,
		ResetTimeout:     resilience.ResetTimeout,
	})
	providerLabels := map[string]string{"provider": transport.Name()}
	a.recorder.RecordGauge("circuit_breaker_state", providerLabels, float64(circuitbreaker.StateClosed))
	a.breaker.OnStateChange(func(from, to circuitbreaker.State) {
		a.recorder.RecordGauge("circuit_breaker_state", providerLabels, float64(to))
	})

	a.client = retryclient.NewRetryingClient(transport, a.breaker, retryclient.Config{
		MaxRetries:     resilience.MaxRetries,
		InitialDelay:   resilience.InitialDelay,
		AttemptTimeout: resilience.AttemptTimeout,
	}).WithRecorder(a.recorder)

	a.service = refine.NewService(a.client, refine.Config{
		Model:             appConfig.LLM.Model,
		SystemInstruction: appConfig.LLM.SystemInstruction,
		Temperature:       appConfig.LLM.Temperature,
		TopP:              appConfig.LLM.TopP,
		CacheTTL:          appConfig.Cache.TTL,
	}).WithRecorder(a.recorder)

	slog.Info("refinement pipeline ready",
		"provider", transport.Name(),
		"model", appConfig.LLM.Model,
		"maxRetries", resilience.MaxRetries,
		"failureThreshold", resilience.FailureThreshold)
	return a, nil
}

func (a *app) newTransport(ctx context.Context) (retryclient.Transport, error) {
	llmConfig := a.config.LLM
	switch llmConfig.Provider {
	case "gemini":
		geminiClient, err := gemini.NewGeminiClient(ctx, llmConfig.Gemini)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, geminiClient.Close)
		return geminiClient, nil
	case "openai":
		return openai.NewOpenAIClient(llmConfig.OpenAI), nil
	case "claude":
		return claude.NewClaudeClient(llmConfig.Claude, llmConfig.MaxTokens), nil
	case "mock":
		return mockllm.NewMockLLMClient(a.config.Mock.FailureRate), nil
	default:
		return nil, &config.ConfigurationError{Field: "llm.provider", Err: fmt.Errorf("unsupported llm provider %q", llmConfig.Provider)}
	}
}
