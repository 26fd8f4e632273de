package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openaigo "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmgate/promptcoder/internal/config"
	"github.com/llmgate/promptcoder/models"
	"github.com/llmgate/promptcoder/retryclient"
)

func TestToChatCompletionRequest(t *testing.T) {
	req := toChatCompletionRequest(models.CompletionRequest{
		Model:             "gpt-4o-mini",
		SystemInstruction: "persona",
		Content:           "refine me",
		Temperature:       0.5,
		TopP:              0.95,
	})

	assert.Equal(t, "gpt-4o-mini", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, openaigo.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, "persona", req.Messages[0].Content)
	assert.Equal(t, openaigo.ChatMessageRoleUser, req.Messages[1].Role)
	assert.Equal(t, float32(0.5), req.Temperature)
	assert.Equal(t, float32(0.95), req.TopP)
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, retryclient.ClientError, retryclient.KindOf(classifyError(&openaigo.APIError{HTTPStatusCode: 400})))
	assert.Equal(t, retryclient.ServerError, retryclient.KindOf(classifyError(&openaigo.APIError{HTTPStatusCode: 429})))
	assert.Equal(t, retryclient.ServerError, retryclient.KindOf(classifyError(&openaigo.RequestError{HTTPStatusCode: 502})))
	assert.Equal(t, retryclient.NetworkError, retryclient.KindOf(classifyError(errors.New("eof"))))
}

func TestComplete_AgainstTestServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": "refined"}, "finish_reason": "stop"}},
		})
	}))
	defer server.Close()

	client := NewOpenAIClient(config.OpenAIConfig{Key: "test-key", BaseUrl: server.URL})

	text, err := client.Complete(context.Background(), models.CompletionRequest{Model: "gpt-4o-mini", Content: "x"})

	require.NoError(t, err)
	assert.Equal(t, "refined", text)
}

func TestComplete_ClientRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(config.OpenAIConfig{Key: "bad", BaseUrl: server.URL})

	_, err := client.Complete(context.Background(), models.CompletionRequest{Model: "gpt-4o-mini", Content: "x"})

	require.Error(t, err)
	assert.Equal(t, retryclient.ClientError, retryclient.KindOf(err))
}
