package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/travelai/booking-chat/backend/internal/config"
	modelchat "github.com/travelai/booking-chat/backend/internal/model/chat"
	"github.com/travelai/booking-chat/backend/internal/model/offer"
	"github.com/travelai/booking-chat/backend/internal/service/booking"
	chatService "github.com/travelai/booking-chat/backend/internal/service/chat"
)

func newTestRouter(rateLimit config.RateLimitConfig) http.Handler {
	completer := booking.CompleterFunc(func(context.Context, []modelchat.Turn) (string, error) {
		return "ok", nil
	})
	catalog := offer.NewSeedCatalog()
	cfg := &config.Config{
		Server:    config.ServerConfig{AllowedOrigins: []string{"*"}},
		RateLimit: rateLimit,
	}

	return NewRouter(Deps{
		Config:    cfg,
		Catalog:   catalog,
		Completer: completer,
		Sessions:  chatService.NewService(catalog, completer, modelchat.English, nil),
	})
}

func TestRouterServesHealthAndAPI(t *testing.T) {
	r := newTestRouter(config.RateLimitConfig{})

	for _, path := range []string{"/healthz", "/api/offers/flights", "/api/offers/hotels"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		assert.Equal(t, http.StatusOK, resp.Code, path)
		assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"), path)
	}
}

func TestRouterAppliesRateLimitToAPI(t *testing.T) {
	r := newTestRouter(config.RateLimitConfig{PerMinute: 1, Burst: 1})

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/offers/flights", nil)
		req.RemoteAddr = "10.1.1.1:1234"
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.1.1.1:1234"
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)
}
