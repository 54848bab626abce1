package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	ratePrefix    = "verification:rate:"
	attemptPrefix = "verification:attempts:"
	codePrefix    = "verification:code:"
)

// counterScript increments a fixed-window counter only while it is below
// the limit. Every allowed increment pushes the window expiry out again,
// while a rejected call returns -1 without extending the caller's wait.
var counterScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
	return -1
end
current = redis.call('INCR', KEYS[1])
redis.call('EXPIRE', KEYS[1], ARGV[2])
return current
`)

type Cache struct {
	client *redis.Client
	ins    instrument.Instrumentation
}

func NewCache(client *redis.Client, ins instrument.Instrumentation) *Cache {
	return &Cache{
		client: client,
		ins:    ins,
	}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("verification.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// AllowSend consumes one slot from the send window for phone. It reports
// false without touching the counter when the window is already full.
func (c *Cache) AllowSend(ctx context.Context, phone string, limit int64, window time.Duration) (ok bool, err error) {
	ctx, span := c.startSpan(ctx, "AllowSend")
	defer func() { c.endSpan(span, err) }()

	n, err := counterScript.Run(ctx, c.client, []string{ratePrefix + phone},
		limit, int64(window.Seconds())).Int64()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// RemainingSends reports how many sends are left in the current window.
func (c *Cache) RemainingSends(ctx context.Context, phone string, limit int64) (n int64, err error) {
	ctx, span := c.startSpan(ctx, "RemainingSends")
	defer func() { c.endSpan(span, err) }()

	used, err := c.client.Get(ctx, ratePrefix+phone).Int64()
	if errors.Is(err, redis.Nil) {
		return limit, nil
	}
	if err != nil {
		return 0, err
	}

	if used >= limit {
		return 0, nil
	}
	return limit - used, nil
}

// AllowAttempt consumes one verification attempt for phone. It reports
// false when the attempt budget is spent.
func (c *Cache) AllowAttempt(ctx context.Context, phone string, limit int64, window time.Duration) (ok bool, err error) {
	ctx, span := c.startSpan(ctx, "AllowAttempt")
	defer func() { c.endSpan(span, err) }()

	n, err := counterScript.Run(ctx, c.client, []string{attemptPrefix + phone},
		limit, int64(window.Seconds())).Int64()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// ResetAttempts clears the attempt counter, used after a successful
// verification so the next code starts with a fresh budget.
func (c *Cache) ResetAttempts(ctx context.Context, phone string) (err error) {
	ctx, span := c.startSpan(ctx, "ResetAttempts")
	defer func() { c.endSpan(span, err) }()

	return c.client.Del(ctx, attemptPrefix+phone).Err()
}

// StoreCode keeps the last issued code for phone. The cache is an
// optimization only, the database record stays authoritative.
func (c *Cache) StoreCode(ctx context.Context, phone, code string, ttl time.Duration) (err error) {
	ctx, span := c.startSpan(ctx, "StoreCode")
	defer func() { c.endSpan(span, err) }()

	return c.client.Set(ctx, codePrefix+phone, code, ttl).Err()
}

// DeleteCode drops the cached code for phone.
func (c *Cache) DeleteCode(ctx context.Context, phone string) (err error) {
	ctx, span := c.startSpan(ctx, "DeleteCode")
	defer func() { c.endSpan(span, err) }()

	return c.client.Del(ctx, codePrefix+phone).Err()
}
