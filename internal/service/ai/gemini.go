package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/travelai/booking-chat/backend/internal/observability"
)

// GeminiModel calls the generateContent REST endpoint directly.
type GeminiModel struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ model.BaseChatModel = (*GeminiModel)(nil)

// GeminiOption customises a GeminiModel.
type GeminiOption func(*GeminiModel)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) GeminiOption {
	return func(m *GeminiModel) {
		m.httpClient = client
	}
}

// NewGeminiModel creates a REST client for the given model.
func NewGeminiModel(baseURL, apiKey, modelName string, logger *zap.Logger, opts ...GeminiOption) *GeminiModel {
	m := &GeminiModel{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      modelName,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     observability.OrNop(logger),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float32 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

// Generate sends one generateContent request.
func (m *GeminiModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := commonOptions(m.model, opts)

	payload := geminiRequest{
		Contents: toGeminiContents(input),
		GenerationConfig: geminiGenerationConfig{
			Temperature:     *options.Temperature,
			MaxOutputTokens: *options.MaxTokens,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode generation request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		m.baseURL, url.PathEscape(*options.Model), url.QueryEscape(m.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read generation response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		m.logger.Error("generation service returned error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw))
		return nil, &UpstreamError{Status: resp.StatusCode}
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode generation response: %w", err)
	}

	text := firstCandidateText(decoded)
	if text == "" {
		m.logger.Warn("generation response carried no text", zap.ByteString("body", raw))
	}
	return schema.AssistantMessage(text, nil), nil
}

// Stream has no native counterpart here; the full reply arrives as one chunk.
func (m *GeminiModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return singleChunk(msg), nil
}

func toGeminiContents(messages []*schema.Message) []geminiContent {
	contents := make([]geminiContent, 0, len(messages))
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		role := "user"
		if msg.Role == schema.Assistant {
			role = "model"
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: msg.Content}},
		})
	}
	return contents
}

// firstCandidateText reads candidates[0].content.parts[0].text and yields ""
// for any other shape.
func firstCandidateText(decoded any) string {
	root, ok := decoded.(map[string]any)
	if !ok {
		return ""
	}
	candidates, ok := root["candidates"].([]any)
	if !ok || len(candidates) == 0 {
		return ""
	}
	candidate, ok := candidates[0].(map[string]any)
	if !ok {
		return ""
	}
	content, ok := candidate["content"].(map[string]any)
	if !ok {
		return ""
	}
	parts, ok := content["parts"].([]any)
	if !ok || len(parts) == 0 {
		return ""
	}
	part, ok := parts[0].(map[string]any)
	if !ok {
		return ""
	}
	text, _ := part["text"].(string)
	return text
}
