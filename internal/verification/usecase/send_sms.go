package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/phone"
	"github.com/shandysiswandi/otpgate/internal/verification/entity"
)

type SendSMSInput struct {
	Phone string `validate:"required"`
}

type SendSMSOutput struct {
	Method     entity.DeliveryMethod
	TrackingID string
	ExpiresAt  time.Time
}

// SendSMS issues a verification code over SMS only, skipping the chat
// channel. Useful when the caller already knows chat cannot reach the user.
func (s *Usecase) SendSMS(ctx context.Context, in SendSMSInput) (*SendSMSOutput, error) {
	ctx, span := s.startSpan(ctx, "SendSMS")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	number, err := phone.Normalize(in.Phone)
	if err != nil {
		slog.WarnContext(ctx, "phone number rejected", "phone", in.Phone)
		return nil, goerror.NewBusiness("invalid phone number format", goerror.CodeInvalidInput)
	}

	ok, err := s.repoCache.AllowSend(ctx, number, s.sendLimit(), s.sendWindow())
	if err != nil {
		slog.ErrorContext(ctx, "failed to check send limit", "phone", number, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !ok {
		slog.WarnContext(ctx, "send limit reached", "phone", number)
		return nil, goerror.NewBusiness("too many codes requested, try again later", goerror.CodeTooManyRequest)
	}

	ok, err = s.repoCache.AllowAttempt(ctx, number, s.attemptLimit(), s.attemptWindow())
	if err != nil {
		slog.ErrorContext(ctx, "failed to check attempt limit", "phone", number, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !ok {
		slog.WarnContext(ctx, "attempt limit reached", "phone", number)
		return nil, goerror.NewBusiness("too many verification attempts, try again later", goerror.CodeTooManyRequest)
	}

	rec, err := s.sms.Send(ctx, number)
	if errors.Is(err, entity.ErrDeliveryFailed) {
		return nil, goerror.NewBusiness("verification code could not be delivered", goerror.CodeUnavailable)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to send sms code", "phone", number, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishCodeSent(ctx, CodeSentEvent{
		Phone:      number,
		Method:     rec.Method().String(),
		TrackingID: rec.DeliveryRef(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish code sent event", "phone", number, "error", err)
	}

	return &SendSMSOutput{
		Method:     rec.Method(),
		TrackingID: rec.DeliveryRef(),
		ExpiresAt:  rec.ExpiresAt,
	}, nil
}
