package gateway

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/otpcode"
	"github.com/shandysiswandi/otpgate/internal/pkg/telegramgw"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/verification/entity"
)

// Chat delivers verification codes through the Telegram gateway. The
// provider keeps the authoritative copy of the code, so Verify asks the
// provider instead of comparing locally.
type Chat struct {
	client telegramgw.Client
	store  RecordStore
	cache  CodeCache
	codes  otpcode.Generator
	numID  uid.NumberID
	clock  clock.Clocker
	gr     *goroutine.Manager
}

func NewChat(
	client telegramgw.Client,
	store RecordStore,
	cache CodeCache,
	codes otpcode.Generator,
	numID uid.NumberID,
	clk clock.Clocker,
	gr *goroutine.Manager,
) *Chat {
	return &Chat{
		client: client,
		store:  store,
		cache:  cache,
		codes:  codes,
		numID:  numID,
		clock:  clk,
		gr:     gr,
	}
}

func (c *Chat) IsAvailable(ctx context.Context, phone string) (bool, error) {
	ability, err := c.client.CheckSendAbility(ctx, phone)
	if err != nil {
		slog.WarnContext(ctx, "telegram send ability check failed",
			"phone", phone, "error", err)
		return false, nil
	}

	return ability.RequestID != "", nil
}

func (c *Chat) Send(ctx context.Context, phone string) (*entity.VerificationRecord, error) {
	ability, err := c.client.CheckSendAbility(ctx, phone)
	if err != nil {
		slog.WarnContext(ctx, "telegram send ability check failed",
			"phone", phone, "error", err)
		return nil, entity.ErrChannelUnavailable
	}

	code, err := c.codes.Generate()
	if err != nil {
		return nil, err
	}

	res, err := c.client.SendVerificationMessage(ctx, telegramgw.SendRequest{
		PhoneNumber: phone,
		Code:        code,
		CodeLength:  otpcode.Length,
		TTLSeconds:  int(entity.CodeTTL.Seconds()),
		RequestID:   ability.RequestID,
	})
	if err != nil {
		slog.ErrorContext(ctx, "telegram verification message failed",
			"phone", phone, "error", err)
		return nil, entity.ErrDeliveryFailed
	}

	now := c.clock.Now()
	rec := entity.VerificationRecord{
		ID:         c.numID.Generate(),
		Phone:      phone,
		Code:       code,
		TrackingID: res.RequestID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(entity.CodeTTL),
	}
	superseded, err := c.store.CreateRecord(ctx, rec)
	if err != nil {
		return nil, err
	}
	c.revokeSuperseded(ctx, superseded)

	if err := c.cache.StoreCode(ctx, phone, code, entity.CodeTTL); err != nil {
		// The database record is authoritative, a cold cache only costs a lookup.
		slog.WarnContext(ctx, "code cache write failed", "phone", phone, "error", err)
	}

	return &rec, nil
}

func (c *Chat) Verify(ctx context.Context, rec *entity.VerificationRecord, code string) (bool, error) {
	if rec.TrackingID == "" {
		return false, nil
	}

	status, err := c.client.CheckVerificationStatus(ctx, rec.TrackingID, code)
	if err != nil {
		slog.ErrorContext(ctx, "telegram verification status check failed",
			"tracking_id", rec.TrackingID, "error", err)
		return false, nil
	}

	return status.VerificationStatus == telegramgw.VerificationStatusValid, nil
}

func (c *Chat) DeliveryStatus(ctx context.Context, trackingID string) (entity.DeliveryStatus, error) {
	status, err := c.client.CheckVerificationStatus(ctx, trackingID, "")
	if err != nil {
		slog.WarnContext(ctx, "telegram delivery status check failed",
			"tracking_id", trackingID, "error", err)
		return entity.DeliveryStatusUnknown, nil
	}

	return entity.ParseDeliveryStatus(status.DeliveryStatus), nil
}

// revokeSuperseded invalidates provider-side messages that a fresh send
// replaced. Revocation is provider hygiene, not correctness, so it runs in
// the background and failures are only logged.
func (c *Chat) revokeSuperseded(ctx context.Context, trackingIDs []string) {
	for _, tid := range trackingIDs {
		c.gr.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
			if err := c.client.RevokeVerificationMessage(ctx, tid); err != nil {
				slog.WarnContext(ctx, "telegram revoke failed", "tracking_id", tid, "error", err)
			}
			return nil
		})
	}
}
