package stream

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/travelai/booking-chat/backend/internal/observability"
	chatService "github.com/travelai/booking-chat/backend/internal/service/chat"
	"github.com/travelai/booking-chat/backend/pkg/utils"
)

const defaultHeartbeat = 15 * time.Second

// Handler pushes render-state snapshots to the browser via Server-Sent Events.
type Handler struct {
	sessions  *chatService.Service
	heartbeat time.Duration
	logger    *zap.Logger
}

// New creates a new stream handler
func New(sessions *chatService.Service, logger *zap.Logger) *Handler {
	return &Handler{
		sessions:  sessions,
		heartbeat: defaultHeartbeat,
		logger:    observability.OrNop(logger),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/events", h.handleEvents)
}

// handleEvents streams "state" events until the client leaves or the session
// is closed.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	orchestrator, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	updates, unsubscribe := orchestrator.Subscribe()
	defer unsubscribe()

	h.logger.Debug("event stream opened", zap.String("session", sessionID))

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("event stream closed by client", zap.String("session", sessionID))
			return
		case state, open := <-updates:
			if !open {
				_ = utils.SendSSEEvent(w, flusher, "closed", map[string]string{"sessionId": sessionID})
				return
			}
			if err := utils.SendSSEEvent(w, flusher, "state", state); err != nil {
				h.logger.Warn("failed to write state event", zap.String("session", sessionID), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "heartbeat"); err != nil {
				return
			}
		}
	}
}
