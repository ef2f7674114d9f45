package chat_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	modelchat "github.com/travelai/booking-chat/backend/internal/model/chat"
	"github.com/travelai/booking-chat/backend/internal/model/offer"
	"github.com/travelai/booking-chat/backend/internal/service/booking"
	chat "github.com/travelai/booking-chat/backend/internal/service/chat"
)

func newTestService() *chat.Service {
	completer := booking.CompleterFunc(func(context.Context, []modelchat.Turn) (string, error) {
		return "ok", nil
	})
	return chat.NewService(offer.NewSeedCatalog(), completer, modelchat.English, nil)
}

func TestServiceGetSession(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)

	got, err := svc.GetSession(ctx, created.Session().ID)
	require.NoError(t, err)
	assert.Same(t, created, got)
	assert.Equal(t, modelchat.English, got.Session().Language)
	assert.Equal(t, 1, svc.Count())
}

func TestServiceCreateSessionInHindi(t *testing.T) {
	svc := newTestService()

	created, err := svc.CreateSession(context.Background(), "hi")
	require.NoError(t, err)

	state := created.State()
	assert.Equal(t, modelchat.Hindi, state.Language)
	require.Len(t, state.Messages, 1)
	assert.Equal(t, modelchat.Hindi.Welcome(), state.Messages[0].Content)
}

func TestServiceCreateSessionRejectsUnknownLanguage(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateSession(context.Background(), "fr")
	assert.Error(t, err)
	assert.Zero(t, svc.Count())
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := newTestService()

	_, err := svc.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, chat.ErrSessionNotFound)
}

func TestServiceDeleteSession(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, "en")
	require.NoError(t, err)
	id := created.Session().ID

	require.NoError(t, svc.DeleteSession(ctx, id))
	_, err = svc.GetSession(ctx, id)
	assert.ErrorIs(t, err, chat.ErrSessionNotFound)
	assert.ErrorIs(t, svc.DeleteSession(ctx, id), chat.ErrSessionNotFound)

	_, err = created.Send(ctx, "hello")
	assert.ErrorIs(t, err, booking.ErrClosed)
}
