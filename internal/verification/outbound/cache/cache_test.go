package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:8-alpine")
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("failed to start redis: %v", err)
	}

	uri, err := ctr.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	opt, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatalf("failed to parse redis url: %v", err)
	}

	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	return NewCache(client, instrument.NewNoop())
}

func TestAllowSendStopsAtLimit(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	phone := "+79991234567"

	left, err := c.RemainingSends(ctx, phone, 3)
	if err != nil || left != 3 {
		t.Fatalf("RemainingSends(fresh) = %d, %v, want 3, nil", left, err)
	}

	for i := 0; i < 3; i++ {
		ok, err := c.AllowSend(ctx, phone, 3, time.Hour)
		if err != nil || !ok {
			t.Fatalf("AllowSend(%d) = %v, %v, want true, nil", i+1, ok, err)
		}
	}

	ok, err := c.AllowSend(ctx, phone, 3, time.Hour)
	if err != nil || ok {
		t.Fatalf("AllowSend(over limit) = %v, %v, want false, nil", ok, err)
	}

	left, err = c.RemainingSends(ctx, phone, 3)
	if err != nil || left != 0 {
		t.Errorf("RemainingSends(exhausted) = %d, %v, want 0, nil", left, err)
	}
}

func TestSendAndAttemptCountersAreSeparate(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	phone := "+79991234567"

	if ok, err := c.AllowSend(ctx, phone, 1, time.Hour); err != nil || !ok {
		t.Fatalf("AllowSend = %v, %v, want true, nil", ok, err)
	}
	if ok, err := c.AllowSend(ctx, phone, 1, time.Hour); err != nil || ok {
		t.Fatalf("AllowSend(exhausted) = %v, %v, want false, nil", ok, err)
	}

	// A full send window must not consume the attempt budget.
	if ok, err := c.AllowAttempt(ctx, phone, 1, time.Hour); err != nil || !ok {
		t.Fatalf("AllowAttempt = %v, %v, want true, nil", ok, err)
	}
	if ok, err := c.AllowAttempt(ctx, phone, 1, time.Hour); err != nil || ok {
		t.Fatalf("AllowAttempt(exhausted) = %v, %v, want false, nil", ok, err)
	}

	if err := c.ResetAttempts(ctx, phone); err != nil {
		t.Fatalf("ResetAttempts error = %v", err)
	}
	if ok, err := c.AllowAttempt(ctx, phone, 1, time.Hour); err != nil || !ok {
		t.Errorf("AllowAttempt(after reset) = %v, %v, want true, nil", ok, err)
	}
}

func TestAllowSendRefreshesWindow(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	phone := "+79991234567"
	window := 2 * time.Second

	if ok, err := c.AllowSend(ctx, phone, 10, window); err != nil || !ok {
		t.Fatalf("AllowSend = %v, %v, want true, nil", ok, err)
	}

	time.Sleep(1200 * time.Millisecond)

	if ok, err := c.AllowSend(ctx, phone, 10, window); err != nil || !ok {
		t.Fatalf("AllowSend = %v, %v, want true, nil", ok, err)
	}

	ttl := c.client.TTL(ctx, ratePrefix+phone).Val()
	if ttl <= window-1200*time.Millisecond {
		t.Errorf("TTL after second send = %v, want the window pushed out again", ttl)
	}
}

func TestAllowSendWindowExpires(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	phone := "+79991234567"

	if ok, err := c.AllowSend(ctx, phone, 1, time.Second); err != nil || !ok {
		t.Fatalf("AllowSend = %v, %v, want true, nil", ok, err)
	}
	if ok, err := c.AllowSend(ctx, phone, 1, time.Second); err != nil || ok {
		t.Fatalf("AllowSend(exhausted) = %v, %v, want false, nil", ok, err)
	}

	time.Sleep(1500 * time.Millisecond)

	if ok, err := c.AllowSend(ctx, phone, 1, time.Second); err != nil || !ok {
		t.Errorf("AllowSend(after window) = %v, %v, want true, nil", ok, err)
	}
}

func TestStoreAndDeleteCode(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	phone := "+79991234567"

	if err := c.StoreCode(ctx, phone, "482910", time.Minute); err != nil {
		t.Fatalf("StoreCode error = %v", err)
	}
	got, err := c.client.Get(ctx, codePrefix+phone).Result()
	if err != nil || got != "482910" {
		t.Fatalf("stored code = %q, %v, want 482910, nil", got, err)
	}

	if err := c.DeleteCode(ctx, phone); err != nil {
		t.Fatalf("DeleteCode error = %v", err)
	}
	if _, err := c.client.Get(ctx, codePrefix+phone).Result(); !errors.Is(err, redis.Nil) {
		t.Errorf("code still present after delete, err = %v", err)
	}
}
