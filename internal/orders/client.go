package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/brightwash/orderdesk-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 2048

var errBaseURLRequired = errors.New("orders base url is required")

// Client talks to the order-creation API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 && c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds an order API client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// CreateOrder posts a finished draft. Upstream field errors come back as
// CodeValidation with the field list attached; transport problems come back
// retryable.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreatedOrder, error) {
	if c == nil || c.httpClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders client not configured")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal order request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build order request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute order request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var envelope struct {
			Data CreatedOrder `json:"data"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode order response")
		}
		order := envelope.Data
		return &order, nil

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		upstream := &pkgerrors.UpstreamError{
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
		typed := pkgerrors.Wrap(pkgerrors.CodeValidation, upstream, "order rejected")
		if fields := decodeFieldErrors(body); len(fields) > 0 {
			typed = typed.WithDetails(fields)
		}
		return nil, typed

	default:
		upstream := &pkgerrors.UpstreamError{
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, upstream, "order submission failed")
	}
}

// decodeFieldErrors pulls upstream field-level errors out of a rejection body
// so they can land back on the originating form fields.
func decodeFieldErrors(body []byte) []FieldRejection {
	var envelope struct {
		Errors []FieldRejection `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	return envelope.Errors
}

// FieldRejection is one upstream field error.
type FieldRejection struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
