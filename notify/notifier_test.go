package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	name string
	err  error
	sent []Message
}

func (f *fakeTransport) Send(ctx context.Context, msg Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeTransport) Name() string { return f.name }

func TestNotifierPrimarySuccess(t *testing.T) {
	primary := &fakeTransport{name: "resend"}
	fallback := &fakeTransport{name: "smtp"}
	n := NewNotifier(primary, "reports@example.com", WithFallback(fallback))

	result, err := n.Send(context.Background(), "counsel@example.com", "Report", "<p>hi</p>", "hi")
	require.NoError(t, err)
	assert.Equal(t, "resend", result.Transport)
	require.Len(t, primary.sent, 1)
	assert.Equal(t, "reports@example.com", primary.sent[0].From)
	assert.Empty(t, fallback.sent)
}

func TestNotifierOnboardingGuardBlocksBeforeSend(t *testing.T) {
	primary := &fakeTransport{name: "resend"}
	n := NewNotifier(primary, "onboarding@resend.dev", WithOwnerEmail("owner@example.com"))

	_, err := n.Send(context.Background(), "someone.else@example.com", "Report", "<p>hi</p>", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorizedRecipient)
	assert.Empty(t, primary.sent, "no transport call may happen for an unauthorized recipient")
}

func TestNotifierOnboardingGuardRequiresOwner(t *testing.T) {
	primary := &fakeTransport{name: "resend"}
	n := NewNotifier(primary, "onboarding@resend.dev")

	_, err := n.Send(context.Background(), "anyone@example.com", "Report", "", "hi")
	assert.ErrorIs(t, err, ErrUnauthorizedRecipient)
	assert.Empty(t, primary.sent)
}

func TestNotifierOnboardingGuardAllowsOwner(t *testing.T) {
	primary := &fakeTransport{name: "resend"}
	n := NewNotifier(primary, "Onboarding@Resend.dev", WithOwnerEmail("owner@example.com"))

	result, err := n.Send(context.Background(), "Owner@Example.com", "Report", "", "hi")
	require.NoError(t, err)
	assert.Equal(t, "resend", result.Transport)
}

func TestNotifierFallbackOnAuthorizationFailure(t *testing.T) {
	primary := &fakeTransport{name: "resend", err: fmt.Errorf("%w: status 403", ErrNotAuthorized)}
	fallback := &fakeTransport{name: "smtp"}
	n := NewNotifier(primary, "reports@example.com", WithFallback(fallback))

	result, err := n.Send(context.Background(), "counsel@example.com", "Report", "", "hi")
	require.NoError(t, err)
	assert.Equal(t, "smtp", result.Transport)
	require.Len(t, fallback.sent, 1)
	assert.Equal(t, "counsel@example.com", fallback.sent[0].To)
}

func TestNotifierNoFallbackForOtherFailures(t *testing.T) {
	primary := &fakeTransport{name: "resend", err: errors.New("rate limit hit")}
	fallback := &fakeTransport{name: "smtp"}
	n := NewNotifier(primary, "reports@example.com", WithFallback(fallback))

	_, err := n.Send(context.Background(), "counsel@example.com", "Report", "", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDelivery)
	assert.Contains(t, err.Error(), "rate limit hit")
	assert.Empty(t, fallback.sent)
}

func TestNotifierBothTransportsFail(t *testing.T) {
	primary := &fakeTransport{name: "resend", err: fmt.Errorf("%w: status 403", ErrNotAuthorized)}
	fallback := &fakeTransport{name: "smtp", err: errors.New("dial tcp: connection refused")}
	n := NewNotifier(primary, "reports@example.com", WithFallback(fallback))

	_, err := n.Send(context.Background(), "counsel@example.com", "Report", "", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDelivery)
	assert.Contains(t, err.Error(), "status 403")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNotifierNoFallbackConfigured(t *testing.T) {
	primary := &fakeTransport{name: "resend", err: fmt.Errorf("%w: status 403", ErrNotAuthorized)}
	n := NewNotifier(primary, "reports@example.com")

	_, err := n.Send(context.Background(), "counsel@example.com", "Report", "", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDelivery)
}
