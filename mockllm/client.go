package mockllm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/llmgate/promptcoder/models"
	"github.com/llmgate/promptcoder/retryclient"
)

// MockLLMClient is an offline transport for local development. It answers in
// the same shape the real models are instructed to use.
type MockLLMClient struct {
	failureRate float64
	mu          sync.Mutex
	rand        *rand.Rand
}

func NewMockLLMClient(failureRate float64) *MockLLMClient {
	return &MockLLMClient{
		failureRate: failureRate,
		rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *MockLLMClient) Name() string {
	return "Mock"
}

// Complete returns a canned refinement, failing with a retryable server error
// at the configured rate.
func (c *MockLLMClient) Complete(ctx context.Context, request models.CompletionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	r := c.rand.Float64()
	c.mu.Unlock()

	if r < c.failureRate {
		return "", retryclient.NewTransportError(retryclient.ServerError, 503, errors.New("mock failure: service unavailable"))
	}

	return fmt.Sprintf("```\n**[ROLE]:**\nYou are a senior software engineer.\n\n**[OBJECTIVE]:**\n%s\n```\n\n"+
		"### Key Improvements\n"+
		"- **Expert Role Assignment:** Assigned a specific engineering role.\n"+
		"- **Actionable Objective:** Restated the request as a precise objective.\n",
		userText(request.Content)), nil
}

// userText strips the refinement template back to what the user typed.
func userText(content string) string {
	start := strings.Index(content, "---\n")
	end := strings.LastIndex(content, "\n---")
	if start == -1 || end <= start {
		return strings.TrimSpace(content)
	}
	return strings.TrimSpace(content[start+len("---\n") : end])
}
