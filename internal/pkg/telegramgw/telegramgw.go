package telegramgw

import (
	"context"
	"errors"
)

// Delivery status values reported by the gateway.
const (
	DeliveryStatusSent      = "sent"
	DeliveryStatusDelivered = "delivered"
	DeliveryStatusRead      = "read"
	DeliveryStatusExpired   = "expired"
	DeliveryStatusRevoked   = "revoked"
)

// Verification status values reported by the gateway.
const (
	VerificationStatusValid   = "code_valid"
	VerificationStatusInvalid = "code_invalid"
	VerificationStatusMaxed   = "code_max_attempts_exceeded"
	VerificationStatusExpired = "expired"
)

var (
	// ErrNotOK is returned when the gateway responds with ok=false.
	ErrNotOK = errors.New("telegramgw: gateway returned not ok")

	// ErrTokenRequired is returned when constructing a live client without a token.
	ErrTokenRequired = errors.New("telegramgw: access token is required")

	// ErrDisabled is returned by every call when the channel is turned off
	// by configuration.
	ErrDisabled = errors.New("telegramgw: channel disabled by configuration")
)

// SendAbility describes whether the gateway can reach a phone number.
type SendAbility struct {
	// RequestID can be reused on the subsequent send call to avoid double billing.
	RequestID string
	// Cost is the price of the pending request.
	Cost float64
	// Balance is the remaining account balance.
	Balance float64
}

// SendRequest carries the parameters of a verification message.
type SendRequest struct {
	PhoneNumber string
	Code        string
	CodeLength  int
	// TTLSeconds is how long the message stays valid on the provider side.
	TTLSeconds int
	// RequestID correlates with a prior CheckSendAbility call, optional.
	RequestID string
}

// SendResult is the gateway response to a send call.
type SendResult struct {
	RequestID      string
	DeliveryStatus string
}

// VerificationStatus is the gateway response to a status check.
type VerificationStatus struct {
	DeliveryStatus     string
	VerificationStatus string
}

// Client talks to the Telegram Gateway verification API.
type Client interface {
	// CheckSendAbility reports whether a verification message can reach the phone.
	CheckSendAbility(ctx context.Context, phoneNumber string) (*SendAbility, error)
	// SendVerificationMessage delivers a code to the phone's Telegram account.
	SendVerificationMessage(ctx context.Context, req SendRequest) (*SendResult, error)
	// CheckVerificationStatus reports delivery state and, when code is non-empty,
	// whether the submitted code matches.
	CheckVerificationStatus(ctx context.Context, requestID, code string) (*VerificationStatus, error)
	// RevokeVerificationMessage invalidates a previously sent message.
	RevokeVerificationMessage(ctx context.Context, requestID string) error
}

// Config drives client construction. It is passed explicitly so no global
// state leaks into callers.
type Config struct {
	// Enabled turns the channel on. When false New returns a client whose
	// every call fails with ErrDisabled, regardless of the other fields.
	Enabled bool
	// Token is the gateway API access token.
	Token string
	// BaseURL overrides the production API endpoint, mainly for tests.
	BaseURL string
	// Debug selects the offline implementation with fabricated responses.
	Debug bool
}

// New returns a Client for the given configuration.
func New(cfg Config) (Client, error) {
	if !cfg.Enabled {
		return NewDisabled(), nil
	}

	if cfg.Debug {
		return NewDebug(), nil
	}

	return NewHTTP(cfg)
}
