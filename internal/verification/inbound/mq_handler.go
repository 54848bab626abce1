package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/shared/event"
	"github.com/shandysiswandi/otpgate/internal/verification/usecase"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) CodeSentAudit(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("verification.inbound.mq").Start(ctx, "CodeSentAudit")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: code sent audit", "msg_body", string(body))

	var payload event.CodeSentMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of code sent audit", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeCodeSent(ctx, usecase.ConsumeCodeSentInput{
		Phone:      payload.Phone,
		Method:     payload.Method,
		TrackingID: payload.TrackingID,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume code sent audit", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}
