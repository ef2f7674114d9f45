package session

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/travelai/booking-chat/backend/internal/model/offer"
	"github.com/travelai/booking-chat/backend/internal/observability"
	"github.com/travelai/booking-chat/backend/internal/service/booking"
	chatService "github.com/travelai/booking-chat/backend/internal/service/chat"
	"github.com/travelai/booking-chat/backend/pkg/utils"
)

// Handler 会话及其结构化操作的HTTP处理器
type Handler struct {
	sessions *chatService.Service
	logger   *zap.Logger
}

// New 创建会话处理器
func New(sessions *chatService.Service, logger *zap.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		logger:   observability.OrNop(logger),
	}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreateSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Delete("/", h.handleDeleteSession)
		r.Post("/messages", h.handleSendMessage)
		r.Post("/selection", h.handleSelectOffer)
		r.Post("/payment", h.handleCompletePayment)
		r.Post("/language", h.handleSwitchLanguage)
		r.Post("/stop", h.handleStop)
	})
}

type busyResponse struct {
	Error string              `json:"error"`
	State booking.RenderState `json:"state"`
}

// handleCreateSession 创建会话，请求体可省略
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Language string `json:"language"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	orchestrator, err := h.sessions.CreateSession(r.Context(), payload.Language)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, orchestrator.State())
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	orchestrator, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, orchestrator.State())
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSendMessage 提交文本（或语音识别结果）
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	orchestrator, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Content string `json:"content"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	done, err := orchestrator.Send(r.Context(), payload.Content)
	h.settle(w, r, orchestrator, done, err)
}

// handleSelectOffer 用户点选了航班或酒店
func (h *Handler) handleSelectOffer(w http.ResponseWriter, r *http.Request) {
	orchestrator, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Kind string `json:"kind"`
		ID   string `json:"id"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	kind, err := offer.ParseKind(payload.Kind)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.ID == "" {
		utils.RespondError(w, http.StatusBadRequest, "id is required")
		return
	}

	done, err := orchestrator.SelectOffer(r.Context(), kind, payload.ID)
	h.settle(w, r, orchestrator, done, err)
}

func (h *Handler) handleCompletePayment(w http.ResponseWriter, r *http.Request) {
	orchestrator, ok := h.lookup(w, r)
	if !ok {
		return
	}

	done, err := orchestrator.CompletePayment(r.Context())
	h.settle(w, r, orchestrator, done, err)
}

func (h *Handler) handleSwitchLanguage(w http.ResponseWriter, r *http.Request) {
	orchestrator, ok := h.lookup(w, r)
	if !ok {
		return
	}

	done, err := orchestrator.SwitchLanguage(r.Context())
	h.settle(w, r, orchestrator, done, err)
}

// handleStop 放弃等待中的回复，不取消上游请求
func (h *Handler) handleStop(w http.ResponseWriter, r *http.Request) {
	orchestrator, ok := h.lookup(w, r)
	if !ok {
		return
	}

	orchestrator.Stop()
	utils.RespondJSON(w, http.StatusOK, orchestrator.State())
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*booking.Orchestrator, bool) {
	orchestrator, err := h.sessions.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return orchestrator, true
}

// settle 默认等待本轮结束后返回最新状态；?wait=false 时立即返回 202
func (h *Handler) settle(w http.ResponseWriter, r *http.Request, orchestrator *booking.Orchestrator, done <-chan struct{}, err error) {
	if err != nil {
		h.respondActionError(w, orchestrator, err)
		return
	}

	if r.URL.Query().Get("wait") == "false" {
		utils.RespondJSON(w, http.StatusAccepted, orchestrator.State())
		return
	}

	select {
	case <-done:
	case <-r.Context().Done():
		h.logger.Debug("client left before turn settled", zap.String("session", chi.URLParam(r, "sessionID")))
		return
	}
	utils.RespondJSON(w, http.StatusOK, orchestrator.State())
}

func (h *Handler) respondActionError(w http.ResponseWriter, orchestrator *booking.Orchestrator, err error) {
	switch {
	case errors.Is(err, booking.ErrBusy):
		utils.RespondJSON(w, http.StatusConflict, busyResponse{Error: err.Error(), State: orchestrator.State()})
	case errors.Is(err, booking.ErrEmptyMessage):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrOfferNotFound), errors.Is(err, booking.ErrClosed):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrPaymentNotRequested):
		utils.RespondError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("session action failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}
