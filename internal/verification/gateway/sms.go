package gateway

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/greensms"
	"github.com/shandysiswandi/otpgate/internal/pkg/otpcode"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/verification/entity"
)

// SMS delivers verification codes as text messages. Unlike the chat
// channel the code is only known locally, so Verify compares against the
// stored record instead of asking the provider.
type SMS struct {
	client greensms.Client
	store  RecordStore
	cache  CodeCache
	codes  otpcode.Generator
	numID  uid.NumberID
	clock  clock.Clocker
}

func NewSMS(
	client greensms.Client,
	store RecordStore,
	cache CodeCache,
	codes otpcode.Generator,
	numID uid.NumberID,
	clk clock.Clocker,
) *SMS {
	return &SMS{
		client: client,
		store:  store,
		cache:  cache,
		codes:  codes,
		numID:  numID,
		clock:  clk,
	}
}

// IsAvailable always reports true. The provider has no per-number
// reachability check, failures surface on Send instead.
func (s *SMS) IsAvailable(ctx context.Context, phone string) (bool, error) {
	return true, nil
}

func (s *SMS) Send(ctx context.Context, phone string) (*entity.VerificationRecord, error) {
	code, err := s.codes.Generate()
	if err != nil {
		return nil, err
	}

	// The record goes in before the carrier call so a verified code always
	// has a durable trace. A failed send removes it again.
	now := s.clock.Now()
	rec := entity.VerificationRecord{
		ID:        s.numID.Generate(),
		Phone:     phone,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(entity.CodeTTL),
	}
	if _, err := s.store.CreateRecord(ctx, rec); err != nil {
		return nil, err
	}

	text := fmt.Sprintf("Your verification code is %s", code)
	requestID, err := s.client.Send(ctx, phone, text)
	if err != nil {
		slog.ErrorContext(ctx, "sms send failed", "phone", phone, "error", err)
		if delErr := s.store.DeleteRecord(ctx, rec.ID); delErr != nil {
			slog.ErrorContext(ctx, "orphan record cleanup failed",
				"phone", phone, "record_id", rec.ID, "error", delErr)
		}
		return nil, entity.ErrDeliveryFailed
	}

	// The carrier id only serves status lookups, so losing it is logged
	// rather than failing a delivery that already happened.
	if requestID != "" {
		rec.ProviderID = requestID
		if err := s.store.SetRecordProviderID(ctx, rec.ID, requestID); err != nil {
			slog.WarnContext(ctx, "carrier request id not persisted",
				"phone", phone, "record_id", rec.ID, "error", err)
		}
	}

	if err := s.cache.StoreCode(ctx, phone, code, entity.CodeTTL); err != nil {
		slog.WarnContext(ctx, "code cache write failed", "phone", phone, "error", err)
	}

	return &rec, nil
}

func (s *SMS) Verify(ctx context.Context, rec *entity.VerificationRecord, code string) (bool, error) {
	if !rec.IsValid(s.clock.Now()) {
		return false, nil
	}

	return subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) == 1, nil
}

func (s *SMS) DeliveryStatus(ctx context.Context, requestID string) (entity.DeliveryStatus, error) {
	status, err := s.client.Status(ctx, requestID)
	if err != nil {
		slog.WarnContext(ctx, "sms status check failed", "request_id", requestID, "error", err)
		return entity.DeliveryStatusUnknown, nil
	}

	switch status {
	case greensms.StatusDelivered:
		return entity.DeliveryStatusDelivered, nil
	case greensms.StatusAccepted, greensms.StatusSent:
		return entity.DeliveryStatusSent, nil
	case greensms.StatusFailed:
		return entity.DeliveryStatusFailed, nil
	default:
		return entity.DeliveryStatusUnknown, nil
	}
}

// Balance reports the remaining provider account balance.
func (s *SMS) Balance(ctx context.Context) (float64, error) {
	return s.client.Balance(ctx)
}
