package telegramgw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	defaultBaseURL = "https://gatewayapi.telegram.org"
	callTimeout    = 10 * time.Second
)

// HTTPClient is the live Telegram Gateway API client.
type HTTPClient struct {
	token   string
	baseURL string
	client  *http.Client
}

// NewHTTP constructs a live client. The token is mandatory.
func NewHTTP(cfg Config) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrTokenRequired
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &HTTPClient{
		token:   cfg.Token,
		baseURL: baseURL,
		client:  &http.Client{Timeout: callTimeout},
	}, nil
}

type apiResponse struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type deliveryStatusPayload struct {
	Status    string `json:"status"`
	UpdatedAt int64  `json:"updated_at"`
}

type verificationStatusPayload struct {
	Status    string `json:"status"`
	UpdatedAt int64  `json:"updated_at"`
}

type requestStatusPayload struct {
	RequestID          string                     `json:"request_id"`
	PhoneNumber        string                     `json:"phone_number"`
	RequestCost        float64                    `json:"request_cost"`
	RemainingBalance   float64                    `json:"remaining_balance"`
	DeliveryStatus     *deliveryStatusPayload     `json:"delivery_status"`
	VerificationStatus *verificationStatusPayload `json:"verification_status"`
}

// CheckSendAbility reports whether a verification message can reach the phone.
func (c *HTTPClient) CheckSendAbility(ctx context.Context, phoneNumber string) (*SendAbility, error) {
	params := map[string]any{"phone_number": phoneNumber}

	var result requestStatusPayload
	if err := c.call(ctx, "checkSendAbility", params, &result); err != nil {
		return nil, err
	}

	return &SendAbility{
		RequestID: result.RequestID,
		Cost:      result.RequestCost,
		Balance:   result.RemainingBalance,
	}, nil
}

// SendVerificationMessage delivers a code to the phone's Telegram account.
func (c *HTTPClient) SendVerificationMessage(ctx context.Context, req SendRequest) (*SendResult, error) {
	params := map[string]any{
		"phone_number": req.PhoneNumber,
		"code_length":  req.CodeLength,
		"ttl":          req.TTLSeconds,
	}
	if req.Code != "" {
		params["code"] = req.Code
	}
	if req.RequestID != "" {
		params["request_id"] = req.RequestID
	}

	var result requestStatusPayload
	if err := c.call(ctx, "sendVerificationMessage", params, &result); err != nil {
		return nil, err
	}

	out := &SendResult{RequestID: result.RequestID}
	if result.DeliveryStatus != nil {
		out.DeliveryStatus = result.DeliveryStatus.Status
	}

	return out, nil
}

// CheckVerificationStatus reports delivery state and code validity.
func (c *HTTPClient) CheckVerificationStatus(ctx context.Context, requestID, code string) (*VerificationStatus, error) {
	params := map[string]any{"request_id": requestID}
	if code != "" {
		params["code"] = code
	}

	var result requestStatusPayload
	if err := c.call(ctx, "checkVerificationStatus", params, &result); err != nil {
		return nil, err
	}

	out := &VerificationStatus{}
	if result.DeliveryStatus != nil {
		out.DeliveryStatus = result.DeliveryStatus.Status
	}
	if result.VerificationStatus != nil {
		out.VerificationStatus = result.VerificationStatus.Status
	}

	return out, nil
}

// RevokeVerificationMessage invalidates a previously sent message.
func (c *HTTPClient) RevokeVerificationMessage(ctx context.Context, requestID string) error {
	params := map[string]any{"request_id": requestID}
	return c.call(ctx, "revokeVerificationMessage", params, nil)
}

// call posts one API method. Transport-level failures and 5xx responses are
// retried once with a short backoff; application-level ok=false is not.
func (c *HTTPClient) call(ctx context.Context, method string, params map[string]any, out any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return err
	}

	b := retry.WithMaxRetries(1, retry.NewConstant(500*time.Millisecond))

	return retry.Do(ctx, b, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("telegramgw: %s returned status %d", method, resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("telegramgw: %s returned status %d", method, resp.StatusCode)
		}

		var envelope apiResponse
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return err
		}
		if !envelope.OK {
			if envelope.Error != "" {
				return fmt.Errorf("%w: %s", ErrNotOK, envelope.Error)
			}
			return ErrNotOK
		}

		if out != nil {
			return json.Unmarshal(envelope.Result, out)
		}

		return nil
	})
}
