// Package notify delivers analysis reports by email. A primary transport is
// tried first; a fallback transport is used only when the primary rejects the
// request for authorization reasons (unverified sender domain, restricted
// recipient).
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	// ErrDelivery wraps any transport failure. The wrapped message carries
	// the transport's own error text unmodified.
	ErrDelivery = errors.New("email delivery failed")

	// ErrUnauthorizedRecipient is returned when the sender identity only
	// permits delivery to the account owner and the recipient differs.
	ErrUnauthorizedRecipient = errors.New("recipient not allowed for unverified sender")

	// ErrNotAuthorized marks authorization-class transport failures. Only
	// these trigger the fallback transport.
	ErrNotAuthorized = errors.New("transport not authorized")
)

// Message is a fully addressed email ready for a transport.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
}

// Transport sends a single message over one delivery channel.
type Transport interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// SendResult reports which transport ultimately delivered the message.
type SendResult struct {
	Transport string
}

// onboardingSender is the shared sandbox identity that may only deliver to
// the account owner's address.
const onboardingSender = "onboarding@resend.dev"

// Notifier routes messages through a primary transport with an optional
// authorization-failure fallback.
type Notifier struct {
	primary    Transport
	fallback   Transport
	from       string
	ownerEmail string
	logger     *logrus.Logger
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithFallback sets the transport used when the primary fails with an
// authorization-class error.
func WithFallback(t Transport) NotifierOption {
	return func(n *Notifier) {
		n.fallback = t
	}
}

// WithOwnerEmail sets the only recipient the onboarding sender may target.
func WithOwnerEmail(email string) NotifierOption {
	return func(n *Notifier) {
		n.ownerEmail = email
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *logrus.Logger) NotifierOption {
	return func(n *Notifier) {
		n.logger = logger
	}
}

// NewNotifier creates a Notifier sending from the given address via primary.
func NewNotifier(primary Transport, from string, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		primary: primary,
		from:    from,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Send delivers msg to recipient. The onboarding-sender guard runs before any
// network call. On an authorization-class primary failure the fallback is
// tried once; any other primary failure is final.
func (n *Notifier) Send(ctx context.Context, recipient, subject, html, text string) (*SendResult, error) {
	if strings.EqualFold(n.from, onboardingSender) {
		if n.ownerEmail == "" || !strings.EqualFold(recipient, n.ownerEmail) {
			return nil, fmt.Errorf("%w: %s can only send to the account owner", ErrUnauthorizedRecipient, onboardingSender)
		}
	}

	msg := Message{
		From:    n.from,
		To:      recipient,
		Subject: subject,
		HTML:    html,
		Text:    text,
	}

	err := n.primary.Send(ctx, msg)
	if err == nil {
		return &SendResult{Transport: n.primary.Name()}, nil
	}

	if n.fallback == nil || !errors.Is(err, ErrNotAuthorized) {
		return nil, fmt.Errorf("%w: %s", ErrDelivery, err.Error())
	}

	n.logger.WithFields(logrus.Fields{
		"primary":  n.primary.Name(),
		"fallback": n.fallback.Name(),
	}).WithError(err).Warn("primary email transport not authorized, trying fallback")

	if fbErr := n.fallback.Send(ctx, msg); fbErr != nil {
		return nil, fmt.Errorf("%w: primary: %s; fallback: %s", ErrDelivery, err.Error(), fbErr.Error())
	}
	return &SendResult{Transport: n.fallback.Name()}, nil
}
