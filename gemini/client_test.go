package gemini

import (
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/llmgate/promptcoder/retryclient"
)

func TestClassifyError(t *testing.T) {
	httpAPIErr, ok := apierror.FromError(&googleapi.Error{Code: 400, Message: "API key not valid"})
	require.True(t, ok)

	tests := []struct {
		name string
		err  error
		want retryclient.ErrorKind
	}{
		{"blocked prompt", &genai.BlockedError{}, retryclient.ClientError},
		{"api error 400", httpAPIErr, retryclient.ClientError},
		{"googleapi 503", &googleapi.Error{Code: 503}, retryclient.ServerError},
		{"googleapi 429", &googleapi.Error{Code: 429}, retryclient.ServerError},
		{"grpc invalid argument", status.Error(codes.InvalidArgument, "bad"), retryclient.ClientError},
		{"grpc unavailable", status.Error(codes.Unavailable, "down"), retryclient.ServerError},
		{"grpc deadline", status.Error(codes.DeadlineExceeded, "slow"), retryclient.NetworkError},
		{"plain", errors.New("dial tcp: connection refused"), retryclient.NetworkError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := classifyError(tt.err)

			assert.Equal(t, tt.want, retryclient.KindOf(classified))
			assert.ErrorIs(t, classified, tt.err)
		})
	}
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("```\nhi\n"), genai.Text("```")}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
		},
	}

	assert.Equal(t, "```\nhi\n```", responseText(resp))
	assert.Equal(t, "", responseText(nil))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{}))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}))
}
