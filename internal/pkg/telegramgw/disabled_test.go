package telegramgw

import (
	"context"
	"errors"
	"testing"
)

func TestNewChoosesDisabledOverDebug(t *testing.T) {
	c, err := New(Config{Enabled: false, Debug: true})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, ok := c.(*Disabled); !ok {
		t.Fatalf("New = %T, want *Disabled when the channel is turned off", c)
	}

	c, err = New(Config{Enabled: true, Debug: true})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, ok := c.(*Debug); !ok {
		t.Fatalf("New = %T, want *Debug when enabled with debug on", c)
	}
}

func TestNewDisabledNeedsNoToken(t *testing.T) {
	if _, err := New(Config{Enabled: false}); err != nil {
		t.Fatalf("New returned error for disabled channel without token: %v", err)
	}
}

func TestDisabledRejectsEveryCall(t *testing.T) {
	d := NewDisabled()
	ctx := context.Background()

	if _, err := d.CheckSendAbility(ctx, "+79991234567"); !errors.Is(err, ErrDisabled) {
		t.Errorf("CheckSendAbility error = %v, want ErrDisabled", err)
	}
	if _, err := d.SendVerificationMessage(ctx, SendRequest{}); !errors.Is(err, ErrDisabled) {
		t.Errorf("SendVerificationMessage error = %v, want ErrDisabled", err)
	}
	if _, err := d.CheckVerificationStatus(ctx, "req", "123456"); !errors.Is(err, ErrDisabled) {
		t.Errorf("CheckVerificationStatus error = %v, want ErrDisabled", err)
	}
	if err := d.RevokeVerificationMessage(ctx, "req"); !errors.Is(err, ErrDisabled) {
		t.Errorf("RevokeVerificationMessage error = %v, want ErrDisabled", err)
	}
}
