package inbound

import "time"

type SendCodeRequest struct {
	Phone      string `json:"phone"`
	PreferChat *bool  `json:"prefer_chat,omitempty"`
}

type SendCodeResponse struct {
	Method     string    `json:"method"`
	TrackingID string    `json:"tracking_id,omitempty"`
	Fallback   bool      `json:"fallback,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (r SendCodeResponse) Message() string {
	if r.Fallback {
		return "Chat delivery failed, verification code sent via SMS."
	}

	return "Verification code sent."
}

type SendSMSRequest struct {
	Phone string `json:"phone"`
}

type SendSMSResponse struct {
	Method     string    `json:"method"`
	TrackingID string    `json:"tracking_id,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (SendSMSResponse) Message() string {
	return "Verification code sent via SMS."
}

type VerifyCodeRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type VerifyCodeResponse struct {
	Verified bool   `json:"verified"`
	Method   string `json:"method,omitempty"`
}

type AvailabilityResponse struct {
	ChatAvailable  bool   `json:"chat_available"`
	Method         string `json:"method"`
	RemainingSends int64  `json:"remaining_sends"`
}

type DeliveryStatusResponse struct {
	Method string `json:"method"`
	Status string `json:"status"`
}

type BalanceResponse struct {
	ChatEnabled bool    `json:"chat_enabled"`
	Balance     float64 `json:"balance"`
}
