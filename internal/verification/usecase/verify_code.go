package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/phone"
	"github.com/shandysiswandi/otpgate/internal/verification/entity"
	"github.com/shandysiswandi/otpgate/internal/verification/gateway"
)

type VerifyCodeInput struct {
	Phone string `validate:"required"`
	Code  string `validate:"required,numeric,len=6"`
}

type VerifyCodeOutput struct {
	Verified bool
	Method   entity.DeliveryMethod
}

// VerifyCode checks a submitted code against the active record for the
// phone. Every failure mode except server faults collapses to
// Verified=false so the response never reveals why a code was rejected.
// A successful verification clears the send attempt counter.
func (s *Usecase) VerifyCode(ctx context.Context, in VerifyCodeInput) (*VerifyCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyCode")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	number, err := phone.Normalize(in.Phone)
	if err != nil {
		slog.WarnContext(ctx, "phone number rejected", "phone", in.Phone)
		return nil, goerror.NewBusiness("invalid phone number format", goerror.CodeInvalidInput)
	}

	rec, err := s.repoDB.GetActiveRecord(ctx, number, in.Code)
	if errors.Is(err, goerror.ErrNotFound) {
		return &VerifyCodeOutput{Verified: false}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get verification record", "phone", number, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !rec.IsValid(s.clock.Now()) {
		return &VerifyCodeOutput{Verified: false}, nil
	}

	// A record that went through the chat gateway verifies against the
	// provider. Everything else verifies locally.
	var gw gateway.Gateway = s.sms
	if rec.Method() == entity.MethodTelegram {
		gw = s.chat
	}

	valid, err := gw.Verify(ctx, rec, in.Code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to verify code", "phone", number, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !valid {
		return &VerifyCodeOutput{Verified: false}, nil
	}

	// Only one of two racing verifications can flip the record.
	won, err := s.repoDB.MarkRecordUsed(ctx, rec.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to mark record used", "phone", number, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !won {
		return &VerifyCodeOutput{Verified: false}, nil
	}

	if err := s.repoCache.ResetAttempts(ctx, number); err != nil {
		slog.WarnContext(ctx, "failed to reset attempt counter", "phone", number, "error", err)
	}
	if err := s.repoCache.DeleteCode(ctx, number); err != nil {
		slog.WarnContext(ctx, "failed to drop cached code", "phone", number, "error", err)
	}

	if err := s.repoMessaging.PublishCodeVerified(ctx, CodeVerifiedEvent{
		Phone:  number,
		Method: rec.Method().String(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish code verified event", "phone", number, "error", err)
	}

	return &VerifyCodeOutput{
		Verified: true,
		Method:   rec.Method(),
	}, nil
}
