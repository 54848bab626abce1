package telegramgw

import (
	"context"
	"strings"
	"testing"
)

func TestDebugCheckSendAbility(t *testing.T) {
	d := NewDebug()

	ability, err := d.CheckSendAbility(context.Background(), "+79991234567")
	if err != nil {
		t.Fatalf("CheckSendAbility returned error: %v", err)
	}
	if !strings.HasPrefix(ability.RequestID, "debug_request_") {
		t.Errorf("RequestID = %q, want debug_request_ prefix", ability.RequestID)
	}
	if ability.Balance != 100 {
		t.Errorf("Balance = %v, want 100", ability.Balance)
	}
}

func TestDebugSendVerificationMessage(t *testing.T) {
	d := NewDebug()

	result, err := d.SendVerificationMessage(context.Background(), SendRequest{
		PhoneNumber: "+79991234567",
		Code:        "042531",
		CodeLength:  6,
		TTLSeconds:  300,
		RequestID:   "debug_request_42",
	})
	if err != nil {
		t.Fatalf("SendVerificationMessage returned error: %v", err)
	}
	if result.RequestID != "debug_request_42" {
		t.Errorf("RequestID = %q, want reuse of the ability request id", result.RequestID)
	}
	if result.DeliveryStatus != DeliveryStatusSent {
		t.Errorf("DeliveryStatus = %q, want %q", result.DeliveryStatus, DeliveryStatusSent)
	}
}

func TestDebugCheckVerificationStatus(t *testing.T) {
	d := NewDebug()

	tests := []struct {
		name string
		code string
		want string
	}{
		{name: "debug code accepted", code: DebugCode, want: VerificationStatusValid},
		{name: "other code rejected", code: "000000", want: VerificationStatusInvalid},
		{name: "no code no verification status", code: "", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, err := d.CheckVerificationStatus(context.Background(), "debug_request_1", tc.code)
			if err != nil {
				t.Fatalf("CheckVerificationStatus returned error: %v", err)
			}
			if status.VerificationStatus != tc.want {
				t.Errorf("VerificationStatus = %q, want %q", status.VerificationStatus, tc.want)
			}
			if status.DeliveryStatus != DeliveryStatusDelivered {
				t.Errorf("DeliveryStatus = %q, want %q", status.DeliveryStatus, DeliveryStatusDelivered)
			}
		})
	}
}
