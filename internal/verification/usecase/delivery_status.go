package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/verification/entity"
)

type DeliveryStatusInput struct {
	TrackingID string `validate:"required"`
}

type DeliveryStatusOutput struct {
	Method entity.DeliveryMethod
	Status entity.DeliveryStatus
}

// DeliveryStatus resolves the provider-side delivery state for a tracking
// id. Chat deliveries are looked up through their stored record, anything
// unknown is assumed to be an SMS provider id.
func (s *Usecase) DeliveryStatus(ctx context.Context, in DeliveryStatusInput) (*DeliveryStatusOutput, error) {
	ctx, span := s.startSpan(ctx, "DeliveryStatus")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	rec, err := s.repoDB.GetRecordByTrackingID(ctx, in.TrackingID)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to get record by tracking id",
			"tracking_id", in.TrackingID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if rec != nil {
		status, err := s.chat.DeliveryStatus(ctx, rec.TrackingID)
		if err != nil {
			return nil, goerror.NewServer(err)
		}
		return &DeliveryStatusOutput{Method: entity.MethodTelegram, Status: status}, nil
	}

	status, err := s.sms.DeliveryStatus(ctx, in.TrackingID)
	if err != nil {
		return nil, goerror.NewServer(err)
	}

	return &DeliveryStatusOutput{Method: entity.MethodSMS, Status: status}, nil
}
