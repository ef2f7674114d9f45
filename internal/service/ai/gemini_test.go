package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGeminiServer(t *testing.T, status int, body string, inspect func(*http.Request, geminiRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload geminiRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		if inspect != nil {
			inspect(r, payload)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeminiGenerateSendsContentsAndConfig(t *testing.T) {
	srv := newGeminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"parts":[{"text":"Where would you like to go?"}]}}]}`,
		func(r *http.Request, payload geminiRequest) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
			assert.Equal(t, "secret", r.URL.Query().Get("key"))

			if assert.Len(t, payload.Contents, 2) {
				assert.Equal(t, "user", payload.Contents[0].Role)
				assert.Equal(t, "model", payload.Contents[1].Role)
				assert.Equal(t, "hello", payload.Contents[0].Parts[0].Text)
			}
			assert.InDelta(t, 0.7, payload.GenerationConfig.Temperature, 1e-6)
			assert.Equal(t, 800, payload.GenerationConfig.MaxOutputTokens)
		})

	m := NewGeminiModel(srv.URL, "secret", "gemini-test", nil)
	msg, err := m.Generate(context.Background(), []*schema.Message{
		schema.UserMessage("hello"),
		schema.AssistantMessage("hi there", nil),
	})

	require.NoError(t, err)
	assert.Equal(t, schema.Assistant, msg.Role)
	assert.Equal(t, "Where would you like to go?", msg.Content)
}

func TestGeminiGenerateSurfacesUpstreamStatus(t *testing.T) {
	srv := newGeminiServer(t, http.StatusTooManyRequests, `{"error":{"message":"quota"}}`, nil)

	m := NewGeminiModel(srv.URL, "secret", "gemini-test", nil)
	_, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hello")})

	require.Error(t, err)
	status, ok := UpstreamStatus(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Contains(t, err.Error(), "429")
	assert.NotContains(t, err.Error(), "quota")
}

func TestGeminiGenerateToleratesUnexpectedShapes(t *testing.T) {
	cases := map[string]string{
		"empty candidates": `{"candidates":[]}`,
		"no candidates":    `{}`,
		"no parts":         `{"candidates":[{"content":{}}]}`,
		"wrong types":      `{"candidates":"nope"}`,
		"non-object":       `[1,2,3]`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := newGeminiServer(t, http.StatusOK, body, nil)
			m := NewGeminiModel(srv.URL, "secret", "gemini-test", nil)

			msg, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hello")})
			require.NoError(t, err)
			assert.Equal(t, "", msg.Content)
		})
	}
}

func TestGeminiGenerateRejectsInvalidJSON(t *testing.T) {
	srv := newGeminiServer(t, http.StatusOK, `not json`, nil)
	m := NewGeminiModel(srv.URL, "secret", "gemini-test", nil)

	_, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hello")})

	require.Error(t, err)
	_, upstream := UpstreamStatus(err)
	assert.False(t, upstream)
}

func TestGeminiStreamReturnsSingleChunk(t *testing.T) {
	srv := newGeminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"parts":[{"text":"one piece"}]}}]}`, nil)
	m := NewGeminiModel(srv.URL, "secret", "gemini-test", nil)

	reader, err := m.Stream(context.Background(), []*schema.Message{schema.UserMessage("hello")})
	require.NoError(t, err)
	defer reader.Close()

	chunk, err := reader.Recv()
	require.NoError(t, err)
	assert.Equal(t, "one piece", chunk.Content)
}
