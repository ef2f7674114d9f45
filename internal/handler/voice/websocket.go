package voice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/travelai/booking-chat/backend/internal/observability"
	"github.com/travelai/booking-chat/backend/internal/service/booking"
	chatService "github.com/travelai/booking-chat/backend/internal/service/chat"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// WebSocketHandler WebSocket语音采集处理器。识别在客户端完成，这里只接收文本结果
type WebSocketHandler struct {
	sessions *chatService.Service
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(sessions *chatService.Service, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: observability.OrNop(logger),
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/voice", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// CaptureData 识别结果或采集错误
type CaptureData struct {
	Text    string `json:"text"`
	Message string `json:"message"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// conn 串行化写操作，ping 协程与读循环共用
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(v)
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	orchestrator, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	c := &conn{ws: ws}
	logger := h.logger.With(zap.String("session", sessionID))
	logger.Debug("voice connection opened")

	// 连接断开时不能残留 listening 状态
	defer func() {
		if orchestrator.CancelListening() {
			logger.Info("voice capture abandoned on disconnect")
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go h.pingLoop(ctx, c)

	h.sendResult(c, sessionID, map[string]any{
		"type":     "connected",
		"language": orchestrator.Session().Language.RecognitionTag(),
	})

	for {
		var msg inboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("voice read error", zap.Error(err))
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(readTimeout))

		h.handleMessage(ctx, c, orchestrator, sessionID, &msg, logger)
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, c *conn, orchestrator *booking.Orchestrator, sessionID string, msg *inboundMessage, logger *zap.Logger) {
	var data CaptureData
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			h.sendError(c, "invalid payload")
			return
		}
	}

	switch msg.Type {
	case "start":
		if err := orchestrator.StartListening(); err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.sendResult(c, sessionID, map[string]any{
			"type":     "listening",
			"language": orchestrator.Session().Language.RecognitionTag(),
		})

	case "result":
		// 识别结果作为普通输入提交，不等待回复
		_, err := orchestrator.FinishListening(ctx, data.Text)
		if err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.sendResult(c, sessionID, map[string]any{"type": "submitted", "text": data.Text})

	case "error", "end":
		// 采集失败只在本地恢复，不写入会话错误
		if msg.Type == "error" {
			logger.Info("voice capture failed", zap.String("reason", data.Message))
		}
		orchestrator.CancelListening()
		h.sendResult(c, sessionID, map[string]any{"type": "idle"})

	default:
		h.sendError(c, "unsupported message type: "+msg.Type)
	}
}

func (h *WebSocketHandler) sendResult(c *conn, sessionID string, data map[string]any) {
	msg := outgoingMessage{
		Type:      "result",
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := c.writeJSON(msg); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		h.logger.Debug("write result failed", zap.Error(err))
	}
}

func (h *WebSocketHandler) sendError(c *conn, message string) {
	msg := outgoingMessage{
		Type:      "error",
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	}
	if err := c.writeJSON(msg); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		h.logger.Debug("write error failed", zap.Error(err))
	}
}

// pingLoop 定期发送ping消息
func (h *WebSocketHandler) pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
