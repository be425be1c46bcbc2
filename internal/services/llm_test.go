package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"codeloom/internal/config"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeCompletionServer(t *testing.T, reply string, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req struct {
			Model string `json:"model"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": reply},
			}},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGenerateExcerpt(t *testing.T) {
	server := fakeCompletionServer(t, `Resumo: "Um guia curto sobre goroutines."`, http.StatusOK)
	svc := NewLLMService(config.LLMConfig{BaseURL: server.URL + "/v1", Token: "test-token", Model: "test-model"})
	require.True(t, svc.Enabled())

	excerpt, err := svc.GenerateExcerpt(context.Background(), "Goroutines", "# Goroutines\n\nSão leves.")
	require.NoError(t, err)
	assert.Equal(t, "Um guia curto sobre goroutines.", excerpt)
}

func TestGenerateExcerptUpstreamError(t *testing.T) {
	server := fakeCompletionServer(t, "", http.StatusInternalServerError)
	svc := NewLLMService(config.LLMConfig{BaseURL: server.URL, Token: "test-token", Model: "test-model"})

	_, err := svc.GenerateExcerpt(context.Background(), "t", "c")
	assert.Error(t, err)
}

func TestDisabledLLM(t *testing.T) {
	svc := NewLLMService(config.LLMConfig{})
	assert.False(t, svc.Enabled())

	_, err := svc.GenerateExcerpt(context.Background(), "t", "c")
	assert.True(t, errors.Is(err, errors.NotSupported))
}

func TestFallbackExcerpt(t *testing.T) {
	assert.Equal(t, "Hello world", fallbackExcerpt("# Hello\n\n*world*"))

	long := fallbackExcerpt(strings.Repeat("palavra ", 60))
	assert.LessOrEqual(t, len([]rune(long)), 161)
	assert.True(t, strings.HasSuffix(long, "…"))
}
