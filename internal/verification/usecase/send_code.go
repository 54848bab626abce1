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

type SendCodeInput struct {
	Phone      string `validate:"required"`
	PreferChat bool
}

type SendCodeOutput struct {
	Method     entity.DeliveryMethod
	TrackingID string
	Fallback   bool
	ExpiresAt  time.Time
}

// SendCode issues a verification code to a phone, preferring the chat
// channel and falling back to SMS when chat cannot deliver.
func (s *Usecase) SendCode(ctx context.Context, in SendCodeInput) (*SendCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "SendCode")
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

	var rec *entity.VerificationRecord
	var fallback bool
	if in.PreferChat {
		rec, err = s.chat.Send(ctx, number)
		if errors.Is(err, entity.ErrChannelUnavailable) || errors.Is(err, entity.ErrDeliveryFailed) {
			slog.InfoContext(ctx, "chat delivery unavailable, falling back to sms", "phone", number)
			fallback = errors.Is(err, entity.ErrDeliveryFailed)
			rec, err = s.sms.Send(ctx, number)
		}
	} else {
		rec, err = s.sms.Send(ctx, number)
	}
	if errors.Is(err, entity.ErrDeliveryFailed) {
		slog.ErrorContext(ctx, "all delivery channels failed", "phone", number)
		return nil, goerror.NewBusiness("verification code could not be delivered", goerror.CodeUnavailable)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to send verification code", "phone", number, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishCodeSent(ctx, CodeSentEvent{
		Phone:      number,
		Method:     rec.Method().String(),
		TrackingID: rec.DeliveryRef(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish code sent event", "phone", number, "error", err)
	}

	return &SendCodeOutput{
		Method:     rec.Method(),
		TrackingID: rec.DeliveryRef(),
		Fallback:   fallback,
		ExpiresAt:  rec.ExpiresAt,
	}, nil
}
