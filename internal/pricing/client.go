package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brightwash/orderdesk-backend/pkg/enums"
	pkgerrors "github.com/brightwash/orderdesk-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1024

var errBaseURLRequired = errors.New("pricing base url is required")

// QuoteRequest carries one cart line's pricing-relevant fields to the quote
// API.
type QuoteRequest struct {
	ProductTypeID   string           `json:"product_type_id"`
	ServiceActionID string           `json:"service_action_id"`
	Quantity        int              `json:"quantity"`
	LengthMeters    *decimal.Decimal `json:"length_meters,omitempty"`
	WidthMeters     *decimal.Decimal `json:"width_meters,omitempty"`
	CustomerID      string           `json:"customer_id,omitempty"`
}

// Quote is the server-computed price for a line.
type Quote struct {
	UnitPrice       decimal.Decimal       `json:"unit_price"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	AppliedUnit     string                `json:"applied_unit"`
	PricingStrategy enums.PricingStrategy `json:"pricing_strategy"`
}

// Client talks to the pricing API.
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

// NewClient builds a pricing API client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// Quote requests a price for one cart line. Failures come back as
// CodeQuoteFailed so callers can surface them inline on the line instead of
// failing the whole draft.
func (c *Client) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	if c == nil || c.httpClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "pricing client not configured")
	}
	if strings.TrimSpace(req.ProductTypeID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product type ID is required")
	}
	if strings.TrimSpace(req.ServiceActionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service action ID is required")
	}
	if req.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal quote request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/quotes", bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeQuoteFailed, err, "build quote request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeQuoteFailed, err, "execute quote request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		upstream := &pkgerrors.UpstreamError{
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeQuoteFailed, upstream, "quote request rejected")
	}

	var envelope struct {
		Data Quote `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeQuoteFailed, err, "decode quote response")
	}
	quote := envelope.Data
	return &quote, nil
}
