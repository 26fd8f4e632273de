package refine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/llmgate/promptcoder/models"
	"github.com/llmgate/promptcoder/promptassembler"
	"github.com/llmgate/promptcoder/responseparser"
	"github.com/llmgate/promptcoder/retryclient"
	"github.com/llmgate/promptcoder/utils"
)

const (
	DefaultModel       = "gemini-2.5-flash"
	DefaultTemperature = 0.5
	DefaultTopP        = 0.95

	ModeSimple     = "simple"
	ModeStructured = "structured"
)

var (
	ErrEmptyPrompt      = &ValidationError{Message: "Please enter a prompt idea to refine."}
	ErrMissingObjective = &ValidationError{Message: `The "Objective" field is required to refine a prompt.`}
)

// ValidationError carries a message that is safe to show to the user.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Client is the resilient completion client the service delegates to.
type Client interface {
	Call(ctx context.Context, request models.CompletionRequest) (string, error)
}

type Config struct {
	Model             string
	SystemInstruction string
	Temperature       float32
	TopP              float32
	// CacheTTL of zero disables result caching.
	CacheTTL time.Duration
}

// Service turns user input into a refined prompt: assemble, call, parse.
type Service struct {
	client   Client
	config   Config
	cache    *cache.Cache
	recorder retryclient.Recorder
}

func NewService(client Client, config Config) *Service {
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.SystemInstruction == "" {
		config.SystemInstruction = DefaultSystemInstruction
	}
	s := &Service{
		client: client,
		config: config,
	}
	if config.CacheTTL > 0 {
		s.cache = cache.New(config.CacheTTL, 2*config.CacheTTL)
	}
	return s
}

func (s *Service) WithRecorder(recorder retryclient.Recorder) *Service {
	s.recorder = recorder
	return s
}

// Refine sends userPrompt to the model and parses the reply. Errors from the
// client are returned unchanged.
func (s *Service) Refine(ctx context.Context, userPrompt string) (models.RefinedPrompt, error) {
	return s.refine(ctx, userPrompt, false)
}

// RefineFields assembles structured fields and refines the result.
func (s *Service) RefineFields(ctx context.Context, fields models.PromptFields) (models.RefinedPrompt, error) {
	if !promptassembler.HasObjective(fields) {
		return models.RefinedPrompt{}, ErrMissingObjective
	}
	return s.refine(ctx, promptassembler.Assemble(fields), false)
}

// RefineRequest dispatches on the request's input mode. Regenerate bypasses
// the result cache.
func (s *Service) RefineRequest(ctx context.Context, request models.RefinePromptRequest) (models.RefinedPrompt, error) {
	switch request.Mode {
	case "", ModeSimple:
		return s.refine(ctx, request.Prompt, request.Regenerate)
	case ModeStructured:
		if !promptassembler.HasObjective(request.Fields) {
			return models.RefinedPrompt{}, ErrMissingObjective
		}
		return s.refine(ctx, promptassembler.Assemble(request.Fields), request.Regenerate)
	default:
		return models.RefinedPrompt{}, &ValidationError{Message: "Unsupported input mode: " + request.Mode}
	}
}

// BuildRequest wraps userPrompt in the fixed template, persona and sampling parameters.
func (s *Service) BuildRequest(userPrompt string) models.CompletionRequest {
	return models.CompletionRequest{
		Model:             s.config.Model,
		SystemInstruction: s.config.SystemInstruction,
		Content:           "Please refine the following user prompt:\n\n---\n" + userPrompt + "\n---",
		Temperature:       s.config.Temperature,
		TopP:              s.config.TopP,
	}
}

func (s *Service) refine(ctx context.Context, userPrompt string, regenerate bool) (models.RefinedPrompt, error) {
	if strings.TrimSpace(userPrompt) == "" {
		return models.RefinedPrompt{}, ErrEmptyPrompt
	}

	key := utils.HashKey(s.config.Model, userPrompt)
	if s.cache != nil && !regenerate {
		if cached, found := s.cache.Get(key); found {
			s.count("hit")
			return clone(cached.(models.RefinedPrompt)), nil
		}
		s.count("miss")
	}

	raw, err := s.client.Call(ctx, s.BuildRequest(userPrompt))
	if err != nil {
		slog.Error("refine prompt failed", "prompt", utils.Truncate(userPrompt, 80), "error", err)
		return models.RefinedPrompt{}, err
	}

	result := responseparser.Parse(raw)
	if s.cache != nil {
		s.cache.Set(key, clone(result), cache.DefaultExpiration)
	}
	return result, nil
}

func (s *Service) count(outcome string) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordCounter("refine_cache_lookups_total", map[string]string{"outcome": outcome}, 1)
}

func clone(result models.RefinedPrompt) models.RefinedPrompt {
	improvements := make([]string, len(result.Improvements))
	copy(improvements, result.Improvements)
	return models.RefinedPrompt{Prompt: result.Prompt, Improvements: improvements}
}
