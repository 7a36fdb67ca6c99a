package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/brightwash/orderdesk-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1024

var errBaseURLRequired = errors.New("catalog base url is required")

// Client talks to the catalog read API (categories, product types, service
// offerings).
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

// NewClient builds a catalog API client for the given base URL.
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

// ListCategories fetches all catalog categories.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.getJSON(ctx, "categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListProductTypes fetches product types, optionally filtered by category and
// search text.
func (c *Client) ListProductTypes(ctx context.Context, filter ProductTypeFilter) ([]ProductType, error) {
	query := url.Values{}
	if strings.TrimSpace(filter.CategoryID) != "" {
		query.Set("category_id", filter.CategoryID)
	}
	if strings.TrimSpace(filter.Search) != "" {
		query.Set("search", filter.Search)
	}

	var out []ProductType
	if err := c.getJSON(ctx, "product-types", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListOfferings fetches the service offerings available for a product type.
func (c *Client) ListOfferings(ctx context.Context, productTypeID string) ([]ServiceOffering, error) {
	trimmed := strings.TrimSpace(productTypeID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product type ID is required")
	}

	query := url.Values{}
	query.Set("product_type_id", trimmed)

	var out []ServiceOffering
	if err := c.getJSON(ctx, "service-offerings", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if c == nil || c.httpClient == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "catalog client not configured")
	}

	endpoint := fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
	if len(query) > 0 {
		endpoint = endpoint + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build catalog request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute catalog request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		upstream := &pkgerrors.UpstreamError{
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, upstream, "catalog request failed")
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode catalog response")
	}
	if len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode catalog payload")
	}
	return nil
}
