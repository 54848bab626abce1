package tests

import (
	"net/http"
	"testing"
)

type verifyData struct {
	Verified bool   `json:"verified"`
	Method   string `json:"method"`
}

func TestVerificationVerifyWrongCode(t *testing.T) {
	phone := uniquePhone()

	status, body := doJSON(t, http.MethodPost, "/api/v1/verification/send",
		map[string]string{"phone": phone}, "")
	if status != http.StatusOK {
		t.Fatalf("send status = %d, body = %s", status, body)
	}

	status, body = doJSON(t, http.MethodPost, "/api/v1/verification/verify",
		map[string]string{"phone": phone, "code": "000000"}, "")
	if status != http.StatusOK {
		t.Fatalf("verify status = %d, body = %s", status, body)
	}

	var data verifyData
	decodeData(t, body, &data)
	if data.Verified {
		t.Error("wrong code verified")
	}
}

func TestVerificationVerifyNoActiveCode(t *testing.T) {
	status, body := doJSON(t, http.MethodPost, "/api/v1/verification/verify",
		map[string]string{"phone": uniquePhone(), "code": "111111"}, "")
	if status != http.StatusOK {
		t.Fatalf("verify status = %d, body = %s", status, body)
	}

	var data verifyData
	decodeData(t, body, &data)
	if data.Verified {
		t.Error("code verified without a prior send")
	}
}

func TestVerificationVerifyInvalidCode(t *testing.T) {
	status, _ := doJSON(t, http.MethodPost, "/api/v1/verification/verify",
		map[string]string{"phone": uniquePhone(), "code": "12ab"}, "")
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("verify status = %d, want 422", status)
	}
}

func TestVerificationVerifyIsGenericOnRepeatedMisses(t *testing.T) {
	phone := uniquePhone()

	// Wrong codes never leak whether a code is pending for the phone.
	for i := 0; i < 3; i++ {
		status, body := doJSON(t, http.MethodPost, "/api/v1/verification/verify",
			map[string]string{"phone": phone, "code": "999999"}, "")
		if status != http.StatusOK {
			t.Fatalf("attempt %d status = %d, body = %s", i+1, status, body)
		}

		var data verifyData
		decodeData(t, body, &data)
		if data.Verified {
			t.Fatalf("attempt %d verified without a prior send", i+1)
		}
	}
}
