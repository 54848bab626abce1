// Package greensms is a client for the GreenSMS text-message API.
//
// A debug implementation logs sends and returns canned success so the rest of
// the system can run without network access or an SMS balance.
package greensms

import (
	"context"
	"errors"
)

// Status values reported for a sent message.
const (
	StatusAccepted  = "accepted"
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
	StatusUnknown   = "unknown"
)

var (
	// ErrRejected is returned when the provider refuses to accept a message.
	ErrRejected = errors.New("greensms: message rejected by provider")

	// ErrCredentialsRequired is returned when constructing a live client
	// without account credentials.
	ErrCredentialsRequired = errors.New("greensms: user and password are required")
)

// Client talks to the SMS provider.
type Client interface {
	// Send submits a text message and returns the provider request id.
	Send(ctx context.Context, to, text string) (string, error)
	// Status returns the delivery status for a previously sent message.
	Status(ctx context.Context, requestID string) (string, error)
	// Balance returns the remaining account balance.
	Balance(ctx context.Context) (float64, error)
}

// Config drives client construction.
type Config struct {
	// User is the provider account name.
	User string
	// Password is the provider account password.
	Password string
	// BaseURL overrides the production API endpoint, mainly for tests.
	BaseURL string
	// From is the optional sender name.
	From string
	// Debug selects the offline implementation.
	Debug bool
}

// New returns a Client for the given configuration.
func New(cfg Config) (Client, error) {
	if cfg.Debug {
		return NewDebug(), nil
	}

	return NewHTTP(cfg)
}
