package openai

import (
	"context"
	"errors"
	"fmt"

	openaigo "github.com/sashabaranov/go-openai"

	"github.com/llmgate/promptcoder/internal/config"
	"github.com/llmgate/promptcoder/models"
	"github.com/llmgate/promptcoder/retryclient"
)

type OpenAIClient struct {
	client *openaigo.Client
}

func NewOpenAIClient(openaiConfig config.OpenAIConfig) *OpenAIClient {
	clientConfig := openaigo.DefaultConfig(openaiConfig.Key)
	if openaiConfig.BaseUrl != "" {
		clientConfig.BaseURL = openaiConfig.BaseUrl
	}
	return &OpenAIClient{
		client: openaigo.NewClientWithConfig(clientConfig),
	}
}

func (c *OpenAIClient) Name() string {
	return "OpenAI"
}

// Complete calls the OpenAI Chat Completions API once.
func (c *OpenAIClient) Complete(ctx context.Context, request models.CompletionRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, toChatCompletionRequest(request))
	if err != nil {
		return "", classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return "", retryclient.NewTransportError(retryclient.ServerError, 0, fmt.Errorf("openai returned no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

func toChatCompletionRequest(request models.CompletionRequest) openaigo.ChatCompletionRequest {
	messages := make([]openaigo.ChatCompletionMessage, 0, 2)
	if request.SystemInstruction != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{
			Role:    openaigo.ChatMessageRoleSystem,
			Content: request.SystemInstruction,
		})
	}
	messages = append(messages, openaigo.ChatCompletionMessage{
		Role:    openaigo.ChatMessageRoleUser,
		Content: request.Content,
	})

	return openaigo.ChatCompletionRequest{
		Model:       request.Model,
		Messages:    messages,
		Temperature: request.Temperature,
		TopP:        request.TopP,
	}
}

func classifyError(err error) error {
	var apiErr *openaigo.APIError
	if errors.As(err, &apiErr) {
		return retryclient.NewTransportError(retryclient.KindFromStatus(apiErr.HTTPStatusCode), apiErr.HTTPStatusCode, err)
	}

	var reqErr *openaigo.RequestError
	if errors.As(err, &reqErr) {
		return retryclient.NewTransportError(retryclient.KindFromStatus(reqErr.HTTPStatusCode), reqErr.HTTPStatusCode, err)
	}

	return retryclient.NewTransportError(retryclient.NetworkError, 0, err)
}
