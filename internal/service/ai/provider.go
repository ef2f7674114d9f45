package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/travelai/booking-chat/backend/internal/config"
)

// NewChatModel builds the chat model for cfg.Provider.
func NewChatModel(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (model.BaseChatModel, error) {
	switch cfg.Provider {
	case config.ProviderArk:
		return newArkChatModel(ctx, cfg)
	case config.ProviderGeminiSDK:
		return NewGeminiSDKModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	case config.ProviderOllama:
		return NewOllamaModel(cfg.OllamaHost, cfg.OllamaModel, logger)
	case config.ProviderGemini, "":
		return NewGeminiModel(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, logger), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}

func newArkChatModel(ctx context.Context, cfg config.AIConfig) (model.BaseChatModel, error) {
	temperature := float32(config.Temperature)
	maxTokens := config.MaxOutputTokens

	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     cfg.ArkBaseURL,
		Region:      cfg.ArkRegion,
		APIKey:      cfg.ArkAPIKey,
		AccessKey:   cfg.ArkAccessKey,
		SecretKey:   cfg.ArkSecretKey,
		Model:       cfg.ArkModel,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})
}

// singleChunk serves Stream for providers that only answer in one piece.
func singleChunk(msg *schema.Message) *schema.StreamReader[*schema.Message] {
	return schema.StreamReaderFromArray([]*schema.Message{msg})
}

func commonOptions(defaultModel string, opts []model.Option) *model.Options {
	temperature := float32(config.Temperature)
	maxTokens := config.MaxOutputTokens
	return model.GetCommonOptions(&model.Options{
		Model:       &defaultModel,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	}, opts...)
}
