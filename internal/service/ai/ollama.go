package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"github.com/travelai/booking-chat/backend/internal/observability"
)

// OllamaModel generates replies with a locally hosted model.
type OllamaModel struct {
	client *api.Client
	model  string
	logger *zap.Logger
}

var _ model.BaseChatModel = (*OllamaModel)(nil)

// NewOllamaModel connects to the Ollama server at host. An empty host falls
// back to OLLAMA_HOST.
func NewOllamaModel(host, modelName string, logger *zap.Logger) (*OllamaModel, error) {
	var client *api.Client
	if strings.TrimSpace(host) == "" {
		c, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		client = c
	} else {
		base, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
		}
		client = api.NewClient(base, http.DefaultClient)
	}

	return &OllamaModel{
		client: client,
		model:  modelName,
		logger: observability.OrNop(logger),
	}, nil
}

func (m *OllamaModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := commonOptions(m.model, opts)

	messages := make([]api.Message, 0, len(input))
	for _, msg := range input {
		role := "user"
		if msg.Role == schema.Assistant {
			role = "assistant"
		}
		messages = append(messages, api.Message{Role: role, Content: msg.Content})
	}

	stream := false
	req := &api.ChatRequest{
		Model:    *options.Model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": *options.Temperature,
			"num_predict": *options.MaxTokens,
		},
	}

	var reply strings.Builder
	err := m.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		reply.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			m.logger.Error("ollama returned error",
				zap.Int("status", statusErr.StatusCode),
				zap.String("message", statusErr.ErrorMessage))
			return nil, &UpstreamError{Status: statusErr.StatusCode}
		}
		return nil, fmt.Errorf("ollama chat failed: %w", err)
	}

	return schema.AssistantMessage(reply.String(), nil), nil
}

func (m *OllamaModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return singleChunk(msg), nil
}
