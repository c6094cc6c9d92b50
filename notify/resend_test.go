package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResendTransport(t *testing.T, handler http.HandlerFunc) *ResendTransport {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewResendTransport("test-key", WithResendBaseURL(server.URL))
}

func TestResendSend(t *testing.T) {
	transport := newTestResendTransport(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "reports@example.com", req["from"])
		assert.Equal(t, []any{"counsel@example.com"}, req["to"])

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id": "abc"}`))
	})

	err := transport.Send(context.Background(), Message{
		From:    "reports@example.com",
		To:      "counsel@example.com",
		Subject: "Report",
		HTML:    "<p>hi</p>",
	})
	assert.NoError(t, err)
}

func TestResendStatusClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		fallback bool
	}{
		{"forbidden", http.StatusForbidden, true},
		// A bad API key is a configuration error, not grounds for fallback.
		{"unauthorized", http.StatusUnauthorized, false},
		{"rate limited", http.StatusTooManyRequests, false},
		{"server error", http.StatusInternalServerError, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			transport := newTestResendTransport(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(`{"message": "nope"}`))
			})

			err := transport.Send(context.Background(), Message{To: "a@b.c"})
			require.Error(t, err)
			if tc.fallback {
				assert.ErrorIs(t, err, ErrNotAuthorized)
			} else {
				assert.False(t, errors.Is(err, ErrNotAuthorized))
			}
		})
	}
}
