package tests

import (
	"net/http"
	"net/url"
	"testing"
)

func TestVerificationAvailability(t *testing.T) {
	phone := uniquePhone()

	status, body := doJSON(t, http.MethodGet,
		"/api/v1/verification/availability?phone="+url.QueryEscape(phone), nil, "")
	if status != http.StatusOK {
		t.Fatalf("availability status = %d, body = %s", status, body)
	}

	var data struct {
		Method         string `json:"method"`
		RemainingSends int64  `json:"remaining_sends"`
	}
	decodeData(t, body, &data)

	if data.Method == "" {
		t.Error("method is empty")
	}
	if data.RemainingSends <= 0 {
		t.Errorf("remaining_sends = %d, want positive for fresh phone", data.RemainingSends)
	}
}

func TestVerificationDeliveryStatus(t *testing.T) {
	phone := uniquePhone()

	status, body := doJSON(t, http.MethodPost, "/api/v1/verification/send",
		map[string]string{"phone": phone}, "")
	if status != http.StatusOK {
		t.Fatalf("send status = %d, body = %s", status, body)
	}

	var sent sendData
	decodeData(t, body, &sent)
	if sent.TrackingID == "" {
		t.Skip("delivery went over a channel without a tracking id")
	}

	status, body = doJSON(t, http.MethodGet,
		"/api/v1/verification/delivery/"+url.PathEscape(sent.TrackingID), nil, "")
	if status != http.StatusOK {
		t.Fatalf("delivery status = %d, body = %s", status, body)
	}

	var data struct {
		Method string `json:"method"`
		Status string `json:"status"`
	}
	decodeData(t, body, &data)
	if data.Status == "" {
		t.Error("status is empty")
	}
}

func TestVerificationDeliveryStatusForSMS(t *testing.T) {
	phone := uniquePhone()

	status, body := doJSON(t, http.MethodPost, "/api/v1/verification/send/sms",
		map[string]string{"phone": phone}, "")
	if status != http.StatusOK {
		t.Fatalf("send sms status = %d, body = %s", status, body)
	}

	var sent sendData
	decodeData(t, body, &sent)
	if sent.TrackingID == "" {
		t.Fatal("sms send returned no tracking id")
	}

	status, body = doJSON(t, http.MethodGet,
		"/api/v1/verification/delivery/"+url.PathEscape(sent.TrackingID), nil, "")
	if status != http.StatusOK {
		t.Fatalf("delivery status = %d, body = %s", status, body)
	}

	var data struct {
		Method string `json:"method"`
		Status string `json:"status"`
	}
	decodeData(t, body, &data)
	if data.Method != "sms" {
		t.Errorf("method = %q, want sms", data.Method)
	}
	if data.Status == "" {
		t.Error("status is empty")
	}
}

func TestVerificationBalanceRequiresAuth(t *testing.T) {
	status, _ := doJSON(t, http.MethodGet, "/api/v1/verification/balance", nil, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("balance status = %d, want 401", status)
	}
}
