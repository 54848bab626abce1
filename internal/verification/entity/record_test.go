package entity

import (
	"testing"
	"time"
)

func TestRecordState(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		record VerificationRecord
		at     time.Time
		want   RecordState
	}{
		{
			name:   "pending inside window",
			record: VerificationRecord{CreatedAt: now, ExpiresAt: now.Add(CodeTTL)},
			at:     now.Add(time.Minute),
			want:   RecordStatePending,
		},
		{
			name:   "used wins over everything",
			record: VerificationRecord{IsUsed: true, CreatedAt: now, ExpiresAt: now.Add(CodeTTL)},
			at:     now,
			want:   RecordStateUsed,
		},
		{
			name:   "expired after window",
			record: VerificationRecord{CreatedAt: now, ExpiresAt: now.Add(CodeTTL)},
			at:     now.Add(CodeTTL + time.Second),
			want:   RecordStateExpired,
		},
		{
			name:   "exactly at expiry still pending",
			record: VerificationRecord{CreatedAt: now, ExpiresAt: now.Add(CodeTTL)},
			at:     now.Add(CodeTTL),
			want:   RecordStatePending,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.record.State(tc.at); got != tc.want {
				t.Fatalf("State() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestRecordMethod(t *testing.T) {
	withTracking := VerificationRecord{TrackingID: "req_1"}
	if withTracking.Method() != MethodTelegram {
		t.Errorf("Method() with tracking id = %s, want %s", withTracking.Method(), MethodTelegram)
	}

	withoutTracking := VerificationRecord{}
	if withoutTracking.Method() != MethodSMS {
		t.Errorf("Method() without tracking id = %s, want %s", withoutTracking.Method(), MethodSMS)
	}

	// A carrier request id identifies the send but never changes the channel.
	smsWithProvider := VerificationRecord{ProviderID: "sms_req_9"}
	if smsWithProvider.Method() != MethodSMS {
		t.Errorf("Method() with provider id = %s, want %s", smsWithProvider.Method(), MethodSMS)
	}
}

func TestRecordDeliveryRef(t *testing.T) {
	chat := VerificationRecord{TrackingID: "req_1", ProviderID: "sms_req_9"}
	if chat.DeliveryRef() != "req_1" {
		t.Errorf("DeliveryRef() = %q, want tracking id", chat.DeliveryRef())
	}

	sms := VerificationRecord{ProviderID: "sms_req_9"}
	if sms.DeliveryRef() != "sms_req_9" {
		t.Errorf("DeliveryRef() = %q, want carrier request id", sms.DeliveryRef())
	}
}

func TestParseDeliveryStatus(t *testing.T) {
	if got := ParseDeliveryStatus("delivered"); got != DeliveryStatusDelivered {
		t.Errorf("ParseDeliveryStatus(delivered) = %s", got)
	}
	if got := ParseDeliveryStatus("weird"); got != DeliveryStatusUnknown {
		t.Errorf("ParseDeliveryStatus(weird) = %s, want unknown", got)
	}
}
