package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/shared/event"
	"github.com/shandysiswandi/otpgate/internal/verification/usecase"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishCodeSent(ctx context.Context, msg usecase.CodeSentEvent) error {
	ctx, span := m.ins.Tracer("verification.outbound.mq").Start(ctx, "PublishCodeSent")
	defer span.End()

	body, err := json.Marshal(event.CodeSentMessage{
		Phone:      msg.Phone,
		Method:     msg.Method,
		TrackingID: msg.TrackingID,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.CodeSentDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Messaging) PublishCodeVerified(ctx context.Context, msg usecase.CodeVerifiedEvent) error {
	ctx, span := m.ins.Tracer("verification.outbound.mq").Start(ctx, "PublishCodeVerified")
	defer span.End()

	body, err := json.Marshal(event.CodeVerifiedMessage{
		Phone:  msg.Phone,
		Method: msg.Method,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.CodeVerifiedDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
