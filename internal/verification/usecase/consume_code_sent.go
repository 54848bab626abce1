package usecase

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type ConsumeCodeSentInput struct {
	Phone      string
	Method     string
	TrackingID string
}

// ConsumeCodeSent writes an audit entry for a delivered code. The event
// payload never carries the code itself.
func (s *Usecase) ConsumeCodeSent(ctx context.Context, in ConsumeCodeSentInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeCodeSent")
	defer span.End()

	slog.InfoContext(ctx, "audit: verification code sent",
		"phone", in.Phone, "method", in.Method, "tracking_id", in.TrackingID)

	if s.sentCounter != nil {
		s.sentCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("method", in.Method)))
	}

	return nil
}
