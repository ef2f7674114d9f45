package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/travelai/booking-chat/backend/internal/model/chat"
	"github.com/travelai/booking-chat/backend/internal/observability"
	"github.com/travelai/booking-chat/backend/internal/service/ai"
	"github.com/travelai/booking-chat/backend/pkg/utils"
)

// Completer 生成下一条助手回复
type Completer interface {
	Complete(ctx context.Context, turns []chat.Turn) (string, error)
}

// Handler 无状态聊天代理的HTTP处理器
type Handler struct {
	completer Completer
	logger    *zap.Logger
}

// New 创建聊天处理器
func New(completer Completer, logger *zap.Logger) *Handler {
	return &Handler{
		completer: completer,
		logger:    observability.OrNop(logger),
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// handleChat 把完整对话转发给生成服务，返回一条助手回复
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chatRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	turns := make([]chat.Turn, 0, len(payload.Messages))
	for _, msg := range payload.Messages {
		role := chat.Role(msg.Role)
		if role != chat.RoleAssistant {
			role = chat.RoleUser
		}
		turns = append(turns, chat.Turn{Role: role, Content: msg.Content})
	}

	reply, err := h.completer.Complete(r.Context(), turns)
	if err != nil {
		status, message := errorResponse(err)
		h.logger.Error("chat completion failed", zap.Int("status", status), zap.Error(err))
		utils.RespondError(w, status, message)
		return
	}

	utils.RespondJSON(w, http.StatusOK, chatResponse{Role: string(chat.RoleAssistant), Content: reply})
}

// errorResponse 按错误类别选择状态码：缺少凭证为 500，上游错误透传其状态码
func errorResponse(err error) (int, string) {
	if errors.Is(err, ai.ErrMissingCredential) {
		return http.StatusInternalServerError, err.Error()
	}
	if status, ok := ai.UpstreamStatus(err); ok {
		return status, fmt.Sprintf("Generation service error: %d", status)
	}
	return http.StatusInternalServerError, fmt.Sprintf("Failed to process request: %v", err)
}
