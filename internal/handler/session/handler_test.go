package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	modelbooking "github.com/travelai/booking-chat/backend/internal/model/booking"
	"github.com/travelai/booking-chat/backend/internal/model/chat"
	"github.com/travelai/booking-chat/backend/internal/model/offer"
	"github.com/travelai/booking-chat/backend/internal/service/booking"
	chatService "github.com/travelai/booking-chat/backend/internal/service/chat"
)

// scripted answers each request with the next reply in order.
type scripted struct {
	replies chan string
}

func (s *scripted) Complete(ctx context.Context, _ []chat.Turn) (string, error) {
	select {
	case reply := <-s.replies:
		return reply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func setupRouter(t *testing.T) (*chi.Mux, *scripted) {
	t.Helper()
	completer := &scripted{replies: make(chan string, 8)}
	sessions := chatService.NewService(offer.NewSeedCatalog(), completer, chat.English, nil)
	t.Cleanup(sessions.Shutdown)

	r := chi.NewRouter()
	New(sessions, nil).RegisterRoutes(r)
	return r, completer
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeState(t *testing.T, resp *httptest.ResponseRecorder) booking.RenderState {
	t.Helper()
	var state booking.RenderState
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &state))
	return state
}

func createSession(t *testing.T, r http.Handler) booking.RenderState {
	t.Helper()
	resp := do(t, r, http.MethodPost, "/sessions", "")
	require.Equal(t, http.StatusCreated, resp.Code)
	return decodeState(t, resp)
}

func TestCreateSessionDefaultsToEnglish(t *testing.T) {
	r, _ := setupRouter(t)

	state := createSession(t, r)
	assert.NotEmpty(t, state.SessionID)
	assert.Equal(t, chat.English, state.Language)
	assert.Equal(t, modelbooking.StageInitial, state.Stage)
	require.Len(t, state.Messages, 1)
}

func TestCreateSessionWithLanguage(t *testing.T) {
	r, _ := setupRouter(t)

	resp := do(t, r, http.MethodPost, "/sessions", `{"language":"hi"}`)
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, chat.Hindi, decodeState(t, resp).Language)

	resp = do(t, r, http.MethodPost, "/sessions", `{"language":"xx"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSendMessageWaitsForReply(t *testing.T) {
	r, completer := setupRouter(t)
	created := createSession(t, r)

	completer.replies <- "Here are some flight options for you."
	resp := do(t, r, http.MethodPost, "/sessions/"+created.SessionID+"/messages", `{"content":"Delhi to Manali"}`)

	require.Equal(t, http.StatusOK, resp.Code)
	state := decodeState(t, resp)
	assert.Len(t, state.Messages, 3)
	assert.Equal(t, modelbooking.StageSelecting, state.Stage)
	assert.Equal(t, modelbooking.OptionsFlights, state.Options)
	assert.Len(t, state.Flights, 2)
	assert.False(t, state.Busy)
}

func TestSendMessageWhileBusyConflicts(t *testing.T) {
	r, completer := setupRouter(t)
	created := createSession(t, r)
	path := "/sessions/" + created.SessionID + "/messages?wait=false"

	resp := do(t, r, http.MethodPost, path, `{"content":"first"}`)
	require.Equal(t, http.StatusAccepted, resp.Code)
	assert.True(t, decodeState(t, resp).Busy)

	resp = do(t, r, http.MethodPost, path, `{"content":"second"}`)
	require.Equal(t, http.StatusConflict, resp.Code)
	var body busyResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Len(t, body.State.Messages, 2)

	resp = do(t, r, http.MethodPost, "/sessions/"+created.SessionID+"/stop", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, decodeState(t, resp).Busy)

	completer.replies <- "ignored"
}

func TestSelectionAndPaymentEndpoints(t *testing.T) {
	r, completer := setupRouter(t)
	created := createSession(t, r)
	base := "/sessions/" + created.SessionID

	resp := do(t, r, http.MethodPost, base+"/selection", `{"kind":"flight","id":"nope"}`)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = do(t, r, http.MethodPost, base+"/selection", `{"kind":"boat","id":"f1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(t, r, http.MethodPost, base+"/payment", "")
	assert.Equal(t, http.StatusConflict, resp.Code)

	completer.replies <- "Please proceed to payment."
	resp = do(t, r, http.MethodPost, base+"/selection", `{"kind":"flight","id":"f1"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	state := decodeState(t, resp)
	assert.Equal(t, "f1", state.SelectedOfferID)
	assert.Equal(t, modelbooking.StagePayment, state.Stage)

	completer.replies <- "Thank you!"
	resp = do(t, r, http.MethodPost, base+"/payment", "")
	require.Equal(t, http.StatusOK, resp.Code)
	state = decodeState(t, resp)
	assert.Equal(t, modelbooking.StageConfirmed, state.Stage)
	assert.Equal(t, modelbooking.OptionsNone, state.Options)
}

func TestSwitchLanguageEndpoint(t *testing.T) {
	r, completer := setupRouter(t)
	created := createSession(t, r)

	completer.replies <- "ठीक है"
	resp := do(t, r, http.MethodPost, "/sessions/"+created.SessionID+"/language", "")

	require.Equal(t, http.StatusOK, resp.Code)
	state := decodeState(t, resp)
	assert.Equal(t, chat.Hindi, state.Language)
	assert.Equal(t, "Please respond in Hindi from now on.", state.Messages[1].Content)
}

func TestUnknownSessionAndDelete(t *testing.T) {
	r, _ := setupRouter(t)

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/sessions/missing", "").Code)

	created := createSession(t, r)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/sessions/"+created.SessionID, "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodDelete, "/sessions/"+created.SessionID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/sessions/"+created.SessionID, "").Code)
}

func TestEmptyMessageRejected(t *testing.T) {
	r, _ := setupRouter(t)
	created := createSession(t, r)

	resp := do(t, r, http.MethodPost, "/sessions/"+created.SessionID+"/messages", `{"content":"  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
