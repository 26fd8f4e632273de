package claude

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic"

	"github.com/llmgate/promptcoder/internal/config"
	"github.com/llmgate/promptcoder/models"
	"github.com/llmgate/promptcoder/retryclient"
)

const defaultMaxTokens = 4096

type ClaudeClient struct {
	client    *anthropic.Client
	maxTokens int
}

func NewClaudeClient(claudeConfig config.ClaudeConfig, maxTokens int) *ClaudeClient {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	var opts []anthropic.ClientOption
	if claudeConfig.BaseUrl != "" {
		opts = append(opts, anthropic.WithBaseURL(claudeConfig.BaseUrl))
	}
	return &ClaudeClient{
		client:    anthropic.NewClient(claudeConfig.Key, opts...),
		maxTokens: maxTokens,
	}
}

func (c *ClaudeClient) Name() string {
	return "Claude"
}

// Complete calls the Anthropic Messages API once.
func (c *ClaudeClient) Complete(ctx context.Context, request models.CompletionRequest) (string, error) {
	resp, err := c.client.CreateMessages(ctx, c.toMessagesRequest(request))
	if err != nil {
		return "", classifyError(err)
	}

	var sb strings.Builder
	for _, content := range resp.Content {
		sb.WriteString(content.Text)
	}
	return sb.String(), nil
}

func (c *ClaudeClient) toMessagesRequest(request models.CompletionRequest) anthropic.MessagesRequest {
	content := request.Content
	temperature := request.Temperature
	topP := request.TopP

	return anthropic.MessagesRequest{
		Model:  request.Model,
		System: request.SystemInstruction,
		Messages: []anthropic.Message{
			{
				Role: "user",
				Content: []anthropic.MessageContent{
					{Type: "text", Text: &content},
				},
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: &temperature,
		TopP:        &topP,
	}
}

func classifyError(err error) error {
	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) {
		return retryclient.NewTransportError(retryclient.KindFromStatus(reqErr.StatusCode), reqErr.StatusCode, err)
	}

	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		return retryclient.NewTransportError(kindFromType(string(apiErr.Type)), 0, err)
	}

	return retryclient.NewTransportError(retryclient.NetworkError, 0, fmt.Errorf("claude request failed: %w", err))
}

func kindFromType(errType string) retryclient.ErrorKind {
	switch errType {
	case "invalid_request_error", "authentication_error", "permission_error", "not_found_error", "request_too_large":
		return retryclient.ClientError
	case "rate_limit_error", "api_error", "overloaded_error":
		return retryclient.ServerError
	default:
		return retryclient.NetworkError
	}
}
