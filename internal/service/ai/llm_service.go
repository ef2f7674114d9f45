package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/travelai/booking-chat/backend/internal/config"
	"github.com/travelai/booking-chat/backend/internal/model/chat"
	"github.com/travelai/booking-chat/backend/internal/observability"
)

// Service turns a conversation transcript into one assistant utterance.
type Service struct {
	chatModel model.BaseChatModel
	template  prompt.ChatTemplate
	persona   *PromptTemplate
	cfg       config.AIConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates the generation service for the configured provider. A
// missing credential is not an error here: every Complete call reports it
// instead, so the process can still start.
func NewService(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (*Service, error) {
	logger = observability.OrNop(logger).Named("ai")

	if !cfg.CredentialPresent() {
		logger.Warn("generation credential not configured, chat requests will fail",
			zap.String("provider", string(cfg.Provider)))
		return NewServiceWithModel(nil, cfg, logger), nil
	}

	chatModel, err := NewChatModel(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	logger.Info("generation service ready",
		zap.String("provider", string(cfg.Provider)),
		zap.String("model", cfg.ModelName()))
	return NewServiceWithModel(chatModel, cfg, logger), nil
}

// NewServiceWithModel wires an existing chat model. A nil model behaves as a
// missing credential.
func NewServiceWithModel(chatModel model.BaseChatModel, cfg config.AIConfig, logger *zap.Logger) *Service {
	template := prompt.FromMessages(
		schema.FString,
		schema.UserMessage("{persona}"),
		schema.AssistantMessage(Acknowledgement, nil),
		schema.MessagesPlaceholder("history", true),
	)

	return &Service{
		chatModel: chatModel,
		template:  template,
		persona:   DefaultPromptTemplate(),
		cfg:       cfg,
		logger:    observability.OrNop(logger),
		now:       time.Now,
	}
}

// Complete requests one assistant utterance for the given transcript.
func (s *Service) Complete(ctx context.Context, turns []chat.Turn) (string, error) {
	if s.chatModel == nil {
		return "", &CredentialError{Provider: s.cfg.ProviderName()}
	}

	messages, err := s.BuildMessages(ctx, turns)
	if err != nil {
		return "", err
	}

	opts := []model.Option{
		model.WithTemperature(float32(config.Temperature)),
		model.WithMaxTokens(config.MaxOutputTokens),
	}
	if name := s.cfg.ModelName(); name != "" {
		opts = append(opts, model.WithModel(name))
	}

	start := time.Now()
	resp, err := s.chatModel.Generate(ctx, messages, opts...)
	if err != nil {
		if _, ok := UpstreamStatus(err); ok {
			return "", err
		}
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}

	content := ""
	if resp != nil {
		content = resp.Content
	}

	s.logger.Debug("generated reply",
		zap.Int("turns", len(turns)),
		zap.Int("length", len(content)),
		zap.Duration("elapsed", time.Since(start)))
	return content, nil
}

// BuildMessages renders the request: persona preamble and acknowledgement
// followed by the transcript. The preamble is only added when there is at
// least one real turn.
func (s *Service) BuildMessages(ctx context.Context, turns []chat.Turn) ([]*schema.Message, error) {
	history := buildHistoryMessages(turns)
	if len(history) == 0 {
		return nil, nil
	}

	messages, err := s.template.Format(ctx, map[string]any{
		"persona": s.persona.Build(s.now()),
		"history": history,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render prompt: %w", err)
	}
	return messages, nil
}

// buildHistoryMessages maps transcript roles onto the two request roles:
// assistant stays assistant, user and system both become user.
func buildHistoryMessages(turns []chat.Turn) []*schema.Message {
	history := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		if turn.Role == chat.RoleAssistant {
			history = append(history, schema.AssistantMessage(turn.Content, nil))
			continue
		}
		history = append(history, schema.UserMessage(turn.Content))
	}
	return history
}
