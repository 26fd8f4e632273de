package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/llmgate/promptcoder/internal/config"
	"github.com/llmgate/promptcoder/models"
	"github.com/llmgate/promptcoder/retryclient"
)

type GeminiClient struct {
	client *genai.Client
}

func NewGeminiClient(ctx context.Context, geminiConfig config.GeminiConfig) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(geminiConfig.Key))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

func (c *GeminiClient) Name() string {
	return "Gemini"
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Complete calls the Gemini GenerateContent API once.
func (c *GeminiClient) Complete(ctx context.Context, request models.CompletionRequest) (string, error) {
	genModel := c.client.GenerativeModel(request.Model)
	genModel.SetTemperature(request.Temperature)
	genModel.SetTopP(request.TopP)
	if request.SystemInstruction != "" {
		genModel.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(request.SystemInstruction)}}
	}

	geminiResponse, err := genModel.GenerateContent(ctx, genai.Text(request.Content))
	if err != nil {
		return "", classifyError(err)
	}

	return responseText(geminiResponse), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}

// classifyError maps SDK errors onto retry kinds using the HTTP status or
// gRPC code the SDK carries.
func classifyError(err error) error {
	var blockedErr *genai.BlockedError
	if errors.As(err, &blockedErr) {
		return retryclient.NewTransportError(retryclient.ClientError, 0, err)
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if code := apiErr.HTTPCode(); code > 0 {
			return retryclient.NewTransportError(retryclient.KindFromStatus(code), code, err)
		}
		if st := apiErr.GRPCStatus(); st != nil {
			return retryclient.NewTransportError(kindFromCode(st.Code()), 0, err)
		}
	}

	var googleErr *googleapi.Error
	if errors.As(err, &googleErr) {
		return retryclient.NewTransportError(retryclient.KindFromStatus(googleErr.Code), googleErr.Code, err)
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return retryclient.NewTransportError(kindFromCode(st.Code()), 0, err)
	}

	return retryclient.NewTransportError(retryclient.NetworkError, 0, err)
}

func kindFromCode(code codes.Code) retryclient.ErrorKind {
	switch code {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.PermissionDenied,
		codes.Unauthenticated, codes.NotFound, codes.OutOfRange, codes.Unimplemented:
		return retryclient.ClientError
	case codes.Unavailable, codes.Internal, codes.ResourceExhausted, codes.Aborted, codes.DataLoss:
		return retryclient.ServerError
	default:
		return retryclient.NetworkError
	}
}
