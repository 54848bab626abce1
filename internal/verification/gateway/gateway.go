package gateway

import (
	"context"
	"time"

	"github.com/shandysiswandi/otpgate/internal/verification/entity"
)

// RecordStore persists verification records for a delivery channel.
// CreateRecord reports the provider tracking ids of the records it
// superseded so a channel can revoke them upstream.
// SetRecordProviderID attaches the carrier request id to an already
// created record once the provider has acknowledged the send.
type RecordStore interface {
	CreateRecord(ctx context.Context, rec entity.VerificationRecord) ([]string, error)
	SetRecordProviderID(ctx context.Context, id int64, providerID string) error
	DeleteRecord(ctx context.Context, id int64) error
}

// CodeCache keeps the last issued code per phone as a lookup shortcut.
type CodeCache interface {
	StoreCode(ctx context.Context, phone, code string, ttl time.Duration) error
}

// Gateway is one way of delivering and checking a verification code. All
// implementations hide provider failures behind entity errors so callers
// never see transport details.
type Gateway interface {
	// IsAvailable reports whether this channel can reach phone right now.
	IsAvailable(ctx context.Context, phone string) (bool, error)

	// Send issues a fresh code to phone and returns the persisted record.
	Send(ctx context.Context, phone string) (*entity.VerificationRecord, error)

	// Verify checks code against rec. A mismatch is (false, nil), not an error.
	Verify(ctx context.Context, rec *entity.VerificationRecord, code string) (bool, error)

	// DeliveryStatus resolves the provider-side status for a tracking id.
	DeliveryStatus(ctx context.Context, trackingID string) (entity.DeliveryStatus, error)
}
