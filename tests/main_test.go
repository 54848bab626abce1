package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

var realBaseURL string
var httpClient = &http.Client{Timeout: 5 * time.Second}

func baseURL() string {
	return realBaseURL
}

type successEnvelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
}

type errorEnvelope struct {
	Message string            `json:"message"`
	Error   map[string]string `json:"error"`
}

func TestMain(m *testing.M) {
	realBaseURL = strings.TrimSpace(os.Getenv("OTPGATE_REAL_BASE_URL"))
	if realBaseURL == "" {
		realBaseURL = "http://localhost:8080"
	}

	healthURL := strings.TrimRight(realBaseURL, "/")
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(healthURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "real tests require a running server (make run). failed to reach %s: %v\n", healthURL, err)
		os.Exit(1)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		fmt.Fprintf(os.Stderr, "real tests require a healthy server. %s returned %s\n", healthURL, resp.Status)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func doJSON(t *testing.T, method, path string, payload any, token string) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(payload); err != nil {
			t.Fatalf("encode json: %v", err)
		}
		body = buf
	}

	req, err := http.NewRequest(method, strings.TrimRight(baseURL(), "/")+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}

	return resp.StatusCode, respBody
}

// uniquePhone fabricates a fresh Russian mobile number per call so limit
// counters from earlier tests never bleed into the current one.
func uniquePhone() string {
	n := time.Now().UnixNano() % 1_000_000_000
	return fmt.Sprintf("+79%09d", n)
}

func decodeData(t *testing.T, body []byte, dst any) {
	t.Helper()

	var env successEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, body)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data: %v (%s)", err, env.Data)
	}
}
