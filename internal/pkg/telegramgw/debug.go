package telegramgw

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DebugCode is the only code the debug client accepts as valid.
const DebugCode = "123456"

// Debug is an offline Client that fabricates gateway responses. Sends are
// logged instead of transmitted, and verification accepts DebugCode only.
type Debug struct {
	now func() time.Time
}

// NewDebug returns a Debug client.
func NewDebug() *Debug {
	return &Debug{now: time.Now}
}

func (d *Debug) requestID() string {
	return fmt.Sprintf("debug_request_%d", d.now().Unix())
}

// CheckSendAbility always reports the phone as reachable.
func (d *Debug) CheckSendAbility(ctx context.Context, phoneNumber string) (*SendAbility, error) {
	slog.DebugContext(ctx, "telegram gateway debug: checkSendAbility", "phone", phoneNumber)

	return &SendAbility{
		RequestID: d.requestID(),
		Cost:      0,
		Balance:   100,
	}, nil
}

// SendVerificationMessage logs the send and fabricates a sent status.
func (d *Debug) SendVerificationMessage(ctx context.Context, req SendRequest) (*SendResult, error) {
	slog.DebugContext(ctx, "telegram gateway debug: sendVerificationMessage",
		"phone", req.PhoneNumber, "code", req.Code, "ttl_seconds", req.TTLSeconds)

	requestID := req.RequestID
	if requestID == "" {
		requestID = d.requestID()
	}

	return &SendResult{
		RequestID:      requestID,
		DeliveryStatus: DeliveryStatusSent,
	}, nil
}

// CheckVerificationStatus reports delivered, and code_valid only for DebugCode.
func (d *Debug) CheckVerificationStatus(ctx context.Context, requestID, code string) (*VerificationStatus, error) {
	slog.DebugContext(ctx, "telegram gateway debug: checkVerificationStatus", "request_id", requestID)

	status := &VerificationStatus{DeliveryStatus: DeliveryStatusDelivered}
	if code != "" {
		status.VerificationStatus = VerificationStatusInvalid
		if code == DebugCode {
			status.VerificationStatus = VerificationStatusValid
		}
	}

	return status, nil
}

// RevokeVerificationMessage is a logged no-op.
func (d *Debug) RevokeVerificationMessage(ctx context.Context, requestID string) error {
	slog.DebugContext(ctx, "telegram gateway debug: revokeVerificationMessage", "request_id", requestID)
	return nil
}
