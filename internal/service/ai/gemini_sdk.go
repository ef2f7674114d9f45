package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	"github.com/travelai/booking-chat/backend/internal/observability"
)

// GeminiSDKModel talks to Gemini through the official Go SDK.
type GeminiSDKModel struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

var _ model.BaseChatModel = (*GeminiSDKModel)(nil)

// NewGeminiSDKModel opens an SDK client authenticated with apiKey.
func NewGeminiSDKModel(ctx context.Context, apiKey, modelName string, logger *zap.Logger) (*GeminiSDKModel, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiSDKModel{
		client: client,
		model:  modelName,
		logger: observability.OrNop(logger),
	}, nil
}

// Close releases the underlying connection.
func (m *GeminiSDKModel) Close() error {
	return m.client.Close()
}

// Generate replays all but the last message as chat history and sends the
// last one.
func (m *GeminiSDKModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if len(input) == 0 {
		return schema.AssistantMessage("", nil), nil
	}

	options := commonOptions(m.model, opts)

	// GenerativeModel 的参数是可变字段，每次请求单独创建。
	gm := m.client.GenerativeModel(*options.Model)
	gm.SetTemperature(*options.Temperature)
	gm.SetMaxOutputTokens(int32(*options.MaxTokens))

	contents := toGenaiContents(input)
	session := gm.StartChat()
	session.History = contents[:len(contents)-1]

	resp, err := session.SendMessage(ctx, contents[len(contents)-1].Parts...)
	if err != nil {
		if status, ok := apiErrorStatus(err); ok {
			m.logger.Error("gemini sdk returned error", zap.Int("status", status), zap.Error(err))
			return nil, &UpstreamError{Status: status}
		}
		return nil, fmt.Errorf("gemini generate error: %w", err)
	}

	return schema.AssistantMessage(firstGenaiText(resp), nil), nil
}

func (m *GeminiSDKModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return singleChunk(msg), nil
}

func toGenaiContents(messages []*schema.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := "user"
		if msg.Role == schema.Assistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return contents
}

func firstGenaiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return ""
	}
	if text, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return string(text)
	}
	return ""
}

var grpcToHTTP = map[codes.Code]int{
	codes.InvalidArgument:    http.StatusBadRequest,
	codes.FailedPrecondition: http.StatusBadRequest,
	codes.Unauthenticated:    http.StatusUnauthorized,
	codes.PermissionDenied:   http.StatusForbidden,
	codes.NotFound:           http.StatusNotFound,
	codes.ResourceExhausted:  http.StatusTooManyRequests,
	codes.Unavailable:        http.StatusServiceUnavailable,
	codes.DeadlineExceeded:   http.StatusGatewayTimeout,
	codes.Internal:           http.StatusInternalServerError,
}

// apiErrorStatus recovers an HTTP status from an SDK error.
func apiErrorStatus(err error) (int, bool) {
	var apiErr *apierror.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}
	if code := apiErr.HTTPCode(); code > 0 {
		return code, true
	}
	if st := apiErr.GRPCStatus(); st != nil {
		if status, ok := grpcToHTTP[st.Code()]; ok {
			return status, true
		}
		return http.StatusBadGateway, true
	}
	return 0, false
}
