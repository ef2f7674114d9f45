package voice

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelai/booking-chat/backend/internal/model/chat"
	"github.com/travelai/booking-chat/backend/internal/model/offer"
	"github.com/travelai/booking-chat/backend/internal/service/booking"
	chatService "github.com/travelai/booking-chat/backend/internal/service/chat"
)

type incoming struct {
	Type      string         `json:"type"`
	SessionID string         `json:"sessionId"`
	Data      map[string]any `json:"data"`
}

func setup(t *testing.T) (*websocket.Conn, *booking.Orchestrator) {
	t.Helper()
	completer := booking.CompleterFunc(func(context.Context, []chat.Turn) (string, error) {
		return "Sure, when would you like to travel?", nil
	})
	sessions := chatService.NewService(offer.NewSeedCatalog(), completer, chat.Hindi, nil)
	t.Cleanup(sessions.Shutdown)

	orchestrator, err := sessions.CreateSession(context.Background(), "")
	require.NoError(t, err)

	r := chi.NewRouter()
	NewWebSocketHandler(sessions, nil).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/" + orchestrator.Session().ID + "/voice"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })

	var hello incoming
	require.NoError(t, ws.ReadJSON(&hello))
	require.Equal(t, "result", hello.Type)
	assert.Equal(t, "hi-IN", hello.Data["language"])

	return ws, orchestrator
}

func send(t *testing.T, ws *websocket.Conn, msgType string, data map[string]string) incoming {
	t.Helper()
	require.NoError(t, ws.WriteJSON(map[string]any{"type": msgType, "data": data}))
	var reply incoming
	require.NoError(t, ws.ReadJSON(&reply))
	return reply
}

func TestVoiceResultIsSubmitted(t *testing.T) {
	ws, orchestrator := setup(t)

	reply := send(t, ws, "start", nil)
	assert.Equal(t, "listening", reply.Data["type"])
	assert.True(t, orchestrator.State().Listening)

	reply = send(t, ws, "result", map[string]string{"text": "Goa ke liye flight"})
	assert.Equal(t, "submitted", reply.Data["type"])

	require.Eventually(t, func() bool {
		state := orchestrator.State()
		return !state.Busy && len(state.Messages) == 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "Goa ke liye flight", orchestrator.State().Messages[1].Content)
	assert.False(t, orchestrator.State().Listening)
}

func TestVoiceErrorClearsListening(t *testing.T) {
	ws, orchestrator := setup(t)

	send(t, ws, "start", nil)
	reply := send(t, ws, "error", map[string]string{"message": "no-speech"})

	assert.Equal(t, "idle", reply.Data["type"])
	state := orchestrator.State()
	assert.False(t, state.Listening)
	assert.Empty(t, state.Error)
	assert.Len(t, state.Messages, 1)
}

func TestVoiceResultWithoutStart(t *testing.T) {
	ws, _ := setup(t)

	reply := send(t, ws, "result", map[string]string{"text": "hello"})
	assert.Equal(t, "error", reply.Type)
	assert.Equal(t, booking.ErrNotListening.Error(), reply.Data["message"])
}

func TestVoiceDisconnectClearsListening(t *testing.T) {
	ws, orchestrator := setup(t)

	send(t, ws, "start", nil)
	require.NoError(t, ws.Close())

	require.Eventually(t, func() bool {
		return !orchestrator.State().Listening
	}, 2*time.Second, 10*time.Millisecond)
}
