package greensms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	defaultBaseURL = "https://api3.greensms.ru"
	callTimeout    = 10 * time.Second
)

// HTTPClient is the live GreenSMS API client.
type HTTPClient struct {
	user     string
	password string
	from     string
	baseURL  string
	client   *http.Client
}

// NewHTTP constructs a live client. Credentials are mandatory.
func NewHTTP(cfg Config) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.User) == "" || strings.TrimSpace(cfg.Password) == "" {
		return nil, ErrCredentialsRequired
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &HTTPClient{
		user:     cfg.User,
		password: cfg.Password,
		from:     cfg.From,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: callTimeout},
	}, nil
}

type sendResponse struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error"`
}

type statusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

type balanceResponse struct {
	Balance float64 `json:"balance"`
	Error   string  `json:"error"`
}

// Send submits a text message and returns the provider request id.
func (c *HTTPClient) Send(ctx context.Context, to, text string) (string, error) {
	payload := map[string]string{
		"user": c.user,
		"pass": c.password,
		"to":   strings.TrimPrefix(to, "+"),
		"txt":  text,
	}
	if c.from != "" {
		payload["from"] = c.from
	}

	var resp sendResponse
	if err := c.post(ctx, "/sms/send", payload, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrRejected, resp.Error)
	}
	if resp.RequestID == "" {
		return "", ErrRejected
	}

	return resp.RequestID, nil
}

// Status returns the delivery status for a previously sent message.
func (c *HTTPClient) Status(ctx context.Context, requestID string) (string, error) {
	q := url.Values{}
	q.Set("user", c.user)
	q.Set("pass", c.password)
	q.Set("id", requestID)

	var resp statusResponse
	if err := c.get(ctx, "/sms/status?"+q.Encode(), &resp); err != nil {
		return StatusUnknown, err
	}
	if resp.Error != "" || resp.Status == "" {
		return StatusUnknown, nil
	}

	return resp.Status, nil
}

// Balance returns the remaining account balance.
func (c *HTTPClient) Balance(ctx context.Context) (float64, error) {
	q := url.Values{}
	q.Set("user", c.user)
	q.Set("pass", c.password)

	var resp balanceResponse
	if err := c.get(ctx, "/account/balance?"+q.Encode(), &resp); err != nil {
		return 0, err
	}

	return resp.Balance, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// do executes one API call, retrying once on transport failures and 5xx.
func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte, out any) error {
	b := retry.WithMaxRetries(1, retry.NewConstant(500*time.Millisecond))

	return retry.Do(ctx, b, func(ctx context.Context) error {
		var reader *bytes.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		} else {
			reader = bytes.NewReader(nil)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("greensms: %s returned status %d", path, resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("greensms: %s returned status %d", path, resp.StatusCode)
		}

		if out != nil {
			return json.NewDecoder(resp.Body).Decode(out)
		}

		return nil
	})
}
