package qrm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://app.wapiserv.qrm.ooo"
	DefaultQRSize  = 400

	apiKeyHeader = "X-Api-Key"
)

var (
	ErrAPIKeyMissing  = errors.New("API key not configured")
	ErrMissingQRImage = errors.New("qr service response missing qr_img")
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("QR service error: %d", e.StatusCode)
}

type CreateQRCodeRequest struct {
	Sum             int64  `json:"sum"`
	QRSize          int    `json:"qr_size"`
	PaymentPurpose  string `json:"payment_purpose"`
	NotificationURL string `json:"notification_url,omitempty"`
}

// Operation is a freshly issued QR payment attempt.
type Operation struct {
	OperationID string
	QRImage     string
	Raw         []byte
}

type createQRCodeResponseEnvelope struct {
	Results struct {
		OperationID json.RawMessage `json:"operation_id"`
		QRImg       string          `json:"qr_img"`
	} `json:"results"`
}

func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: httpClient,
		logger:     logger,
	}
}

// CreateQRCode issues a new operation. Every call creates a new operation on
// the provider side; there is no idempotency key.
func (c *Client) CreateQRCode(ctx context.Context, in CreateQRCodeRequest) (Operation, error) {
	var out Operation
	if in.QRSize <= 0 {
		in.QRSize = DefaultQRSize
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return out, err
	}
	body, err := c.do(ctx, http.MethodPost, "/operations/qr-code/", payload)
	out.Raw = body
	if err != nil {
		return out, err
	}
	var resp createQRCodeResponseEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		return out, fmt.Errorf("decode qr-code response: %w", err)
	}
	out.QRImage = strings.TrimSpace(resp.Results.QRImg)
	if out.QRImage == "" {
		return out, ErrMissingQRImage
	}
	out.OperationID = rawID(resp.Results.OperationID)
	return out, nil
}

func (c *Client) do(ctx context.Context, method, target string, payload []byte) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	var bodyReader io.Reader
	if len(payload) > 0 {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+target, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)
	if len(payload) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if c.logger != nil {
		c.logger.Debug("qrm_api_response", "method", method, "path", target, "status", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

// rawID renders a JSON string or number id as plain text.
func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}
