package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGroqClient(t *testing.T, handler http.HandlerFunc) *GroqClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewGroqClient(GroqConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})
	require.NoError(t, err)
	return client
}

func TestGroqCompleteSuccess(t *testing.T) {
	client := newTestGroqClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		messages := req["messages"].([]any)
		require.Len(t, messages, 2)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"message": {"content": "{\"risk_score\": 1}"}}]}`))
	})

	content, err := client.Complete(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"risk_score": 1}`, content)
}

func TestGroqCompleteRateLimited(t *testing.T) {
	client := newTestGroqClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limit exceeded"}}`))
	})

	_, err := client.Complete(context.Background(), "system", "user")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Contains(t, err.Error(), "429")
}

func TestGroqCompleteServerError(t *testing.T) {
	client := newTestGroqClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Complete(context.Background(), "system", "user")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestGroqCompleteBadRequestIsPermanent(t *testing.T) {
	client := newTestGroqClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "invalid model"}}`))
	})

	_, err := client.Complete(context.Background(), "system", "user")
	require.Error(t, err)
	assert.False(t, IsTransient(err))
}

func TestGroqCompleteUnreachable(t *testing.T) {
	client, err := NewGroqClient(GroqConfig{
		APIKey:  "test-key",
		BaseURL: "http://127.0.0.1:1",
	})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "system", "user")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestGroqCompleteEmptyChoices(t *testing.T) {
	client := newTestGroqClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	})

	_, err := client.Complete(context.Background(), "system", "user")
	require.Error(t, err)
	assert.False(t, IsTransient(err))
}

func TestGroqClientRequiresAPIKey(t *testing.T) {
	_, err := NewGroqClient(GroqConfig{})
	assert.Error(t, err)
}
