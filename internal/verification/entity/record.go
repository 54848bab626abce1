package entity

import (
	"errors"
	"time"
)

// CodeTTL is how long an issued code stays valid.
const CodeTTL = 5 * time.Minute

var (
	// ErrDeliveryFailed indicates a channel could not deliver the code.
	ErrDeliveryFailed = errors.New("verification: code delivery failed")

	// ErrChannelUnavailable indicates the channel cannot reach the phone.
	ErrChannelUnavailable = errors.New("verification: channel unavailable for phone")
)

// VerificationRecord is the durable trace of one issued code.
//
// At most one non-used, non-expired record exists per phone: issuing a new
// code marks every prior non-used record for that phone as used. Records are
// never deleted on supersede, keeping an audit trail of every issue attempt.
type VerificationRecord struct {
	ID    int64
	Phone string

	// Code is exactly six decimal digits, kept as text to preserve leading zeros.
	Code string

	// TrackingID is the provider correlation id. Present only for records
	// delivered through the Telegram gateway; such records verify against the
	// provider, never locally.
	TrackingID string

	// ProviderID is the carrier request id for SMS deliveries. It is kept
	// separate from TrackingID because it only identifies the send for
	// status lookups and must not pull the record into provider-side
	// verification.
	ProviderID string

	IsUsed    bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Method reports the channel that owns this record, derived from the
// presence of a provider tracking id on Telegram deliveries.
func (r *VerificationRecord) Method() DeliveryMethod {
	if r.TrackingID != "" {
		return MethodTelegram
	}
	return MethodSMS
}

// DeliveryRef is the id callers use to query delivery status: the Telegram
// tracking id when present, otherwise the SMS carrier request id.
func (r *VerificationRecord) DeliveryRef() string {
	if r.TrackingID != "" {
		return r.TrackingID
	}
	return r.ProviderID
}

// State derives the lifecycle state at the given time.
func (r *VerificationRecord) State(now time.Time) RecordState {
	switch {
	case r.IsUsed:
		return RecordStateUsed
	case now.After(r.ExpiresAt):
		return RecordStateExpired
	default:
		return RecordStatePending
	}
}

// IsValid reports whether the record can still be verified at the given time.
func (r *VerificationRecord) IsValid(now time.Time) bool {
	return r.State(now) == RecordStatePending
}
