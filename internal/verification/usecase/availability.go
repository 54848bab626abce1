package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/phone"
	"github.com/shandysiswandi/otpgate/internal/verification/entity"
)

type AvailabilityInput struct {
	Phone string `validate:"required"`
}

type AvailabilityOutput struct {
	ChatAvailable  bool
	Method         entity.DeliveryMethod
	RemainingSends int64
}

// Availability reports which channel a send would use for the phone and
// how many sends remain in the current window. It does not consume a slot.
func (s *Usecase) Availability(ctx context.Context, in AvailabilityInput) (*AvailabilityOutput, error) {
	ctx, span := s.startSpan(ctx, "Availability")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	number, err := phone.Normalize(in.Phone)
	if err != nil {
		slog.WarnContext(ctx, "phone number rejected", "phone", in.Phone)
		return nil, goerror.NewBusiness("invalid phone number format", goerror.CodeInvalidInput)
	}

	remaining, err := s.repoCache.RemainingSends(ctx, number, s.sendLimit())
	if err != nil {
		slog.ErrorContext(ctx, "failed to read send window", "phone", number, "error", err)
		return nil, goerror.NewServer(err)
	}

	method := entity.MethodSMS
	chatOK, err := s.chat.IsAvailable(ctx, number)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check chat availability", "phone", number, "error", err)
		return nil, goerror.NewServer(err)
	}
	if chatOK {
		method = entity.MethodTelegram
	}

	return &AvailabilityOutput{
		ChatAvailable:  chatOK,
		Method:         method,
		RemainingSends: remaining,
	}, nil
}
