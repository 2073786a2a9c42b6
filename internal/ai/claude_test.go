package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClaudeTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *ClaudeProvider) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p := NewClaudeProvider("sk-test", 5*time.Second)
	p.BaseURL = srv.URL
	return srv, p
}

func TestClaudeGenerateResponse(t *testing.T) {
	var gotReq claudeChatReq
	_, p := newClaudeTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		assert.Equal(t, claudeAPIVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"type":"text","text":"hello "},{"type":"text","text":"world"}]}`))
	})

	text, err := p.GenerateResponse(context.Background(), "be brief", "--- Round 1 ---\nA: hi\n", "greetings")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)

	assert.Equal(t, "be brief", gotReq.System)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
	assert.Contains(t, gotReq.Messages[0].Content, "Debate topic: greetings")
	assert.Contains(t, gotReq.Messages[0].Content, "A: hi")
}

func TestClaudeGenerateResponseHTTPError(t *testing.T) {
	_, p := newClaudeTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	})

	_, err := p.GenerateResponse(context.Background(), "sys", "", "topic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid x-api-key")
}

func TestClaudeGenerateResponseInBandError(t *testing.T) {
	_, p := newClaudeTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[],"error":{"type":"overloaded_error","message":"overloaded"}}`))
	})

	_, err := p.GenerateResponse(context.Background(), "sys", "", "topic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
}

func TestClaudeGenerateResponseEmptyContent(t *testing.T) {
	_, p := newClaudeTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	})

	_, err := p.GenerateResponse(context.Background(), "sys", "", "topic")
	assert.Error(t, err)
}

func TestClaudeRequiresKey(t *testing.T) {
	p := NewClaudeProvider("   ", time.Second)
	_, err := p.GenerateResponse(context.Background(), "sys", "", "topic")
	assert.Error(t, err)
	assert.False(t, p.ValidateKey(context.Background()))
}

func TestClaudeValidateKey(t *testing.T) {
	_, p := newClaudeTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		if r.Header.Get("x-api-key") != "sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"data":[]}`))
	})

	assert.True(t, p.ValidateKey(context.Background()))
	p.APIKey = "sk-wrong"
	assert.False(t, p.ValidateKey(context.Background()))
}
