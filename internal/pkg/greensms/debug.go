package greensms

import (
	"context"
	"log/slog"
)

// DebugRequestID is the request id returned for every debug send.
const DebugRequestID = "debug_request_id"

// Debug is an offline Client. Sends are logged, never transmitted.
type Debug struct{}

// NewDebug returns a Debug client.
func NewDebug() *Debug {
	return &Debug{}
}

// Send logs the message and reports success.
func (*Debug) Send(ctx context.Context, to, text string) (string, error) {
	slog.DebugContext(ctx, "sms debug: send", "to", to, "text", text)
	return DebugRequestID, nil
}

// Status always reports delivered.
func (*Debug) Status(ctx context.Context, requestID string) (string, error) {
	slog.DebugContext(ctx, "sms debug: status", "request_id", requestID)
	return StatusDelivered, nil
}

// Balance reports a fixed test balance.
func (*Debug) Balance(ctx context.Context) (float64, error) {
	return 100, nil
}
