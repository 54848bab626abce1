package tests

import (
	"net/http"
	"testing"
)

type sendData struct {
	Method     string `json:"method"`
	TrackingID string `json:"tracking_id"`
	ExpiresAt  string `json:"expires_at"`
}

func TestVerificationSend(t *testing.T) {
	phone := uniquePhone()

	status, body := doJSON(t, http.MethodPost, "/api/v1/verification/send",
		map[string]string{"phone": phone}, "")
	if status != http.StatusOK {
		t.Fatalf("send status = %d, body = %s", status, body)
	}

	var data sendData
	decodeData(t, body, &data)

	if data.Method != "telegram" && data.Method != "sms" {
		t.Errorf("method = %q, want telegram or sms", data.Method)
	}
	if data.ExpiresAt == "" {
		t.Error("expires_at is empty")
	}
}

func TestVerificationSendWithoutChatPreference(t *testing.T) {
	phone := uniquePhone()

	status, body := doJSON(t, http.MethodPost, "/api/v1/verification/send",
		map[string]any{"phone": phone, "prefer_chat": false}, "")
	if status != http.StatusOK {
		t.Fatalf("send status = %d, body = %s", status, body)
	}

	var data sendData
	decodeData(t, body, &data)

	if data.Method != "sms" {
		t.Errorf("method = %q, want sms", data.Method)
	}
}

func TestVerificationSendNormalizesTrunkPrefix(t *testing.T) {
	// A Russian number written with the 8 trunk prefix counts against the
	// same window as its +7 form.
	phone := uniquePhone()
	trunk := "8" + phone[2:]

	status, body := doJSON(t, http.MethodPost, "/api/v1/verification/send",
		map[string]string{"phone": trunk}, "")
	if status != http.StatusOK {
		t.Fatalf("send status = %d, body = %s", status, body)
	}
}

func TestVerificationSendInvalidPhone(t *testing.T) {
	status, _ := doJSON(t, http.MethodPost, "/api/v1/verification/send",
		map[string]string{"phone": "abc"}, "")
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("send status = %d, want 422", status)
	}
}

func TestVerificationSendRateLimited(t *testing.T) {
	phone := uniquePhone()

	for i := 0; i < 5; i++ {
		status, body := doJSON(t, http.MethodPost, "/api/v1/verification/send",
			map[string]string{"phone": phone}, "")
		if status != http.StatusOK {
			t.Fatalf("send %d status = %d, body = %s", i+1, status, body)
		}
	}

	status, _ := doJSON(t, http.MethodPost, "/api/v1/verification/send",
		map[string]string{"phone": phone}, "")
	if status != http.StatusTooManyRequests {
		t.Fatalf("sixth send status = %d, want 429", status)
	}
}

func TestVerificationSendSMS(t *testing.T) {
	phone := uniquePhone()

	status, body := doJSON(t, http.MethodPost, "/api/v1/verification/send/sms",
		map[string]string{"phone": phone}, "")
	if status != http.StatusOK {
		t.Fatalf("send sms status = %d, body = %s", status, body)
	}

	var data sendData
	decodeData(t, body, &data)

	if data.Method != "sms" {
		t.Errorf("method = %q, want sms", data.Method)
	}
}
