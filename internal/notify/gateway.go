package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/brightwash/orderdesk-backend/pkg/config"
	pkgerrors "github.com/brightwash/orderdesk-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1024

var (
	errGatewayURLRequired = errors.New("whatsapp gateway url is required")
	errSenderRequired     = errors.New("whatsapp sender is required")
)

// Gateway sends WhatsApp messages through the configured gateway service.
type Gateway struct {
	httpClient *http.Client
	baseURL    string
	token      string
	sender     string
}

// NewGateway builds the WhatsApp gateway client.
func NewGateway(cfg config.WhatsAppConfig) (*Gateway, error) {
	baseURL := strings.TrimSpace(cfg.GatewayURL)
	if baseURL == "" {
		return nil, errGatewayURLRequired
	}
	sender := strings.TrimSpace(cfg.Sender)
	if sender == "" {
		return nil, errSenderRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Gateway{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      strings.TrimSpace(cfg.Token),
		sender:     sender,
	}, nil
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message"`
}

// Send delivers one text message to the recipient's WhatsApp number.
func (g *Gateway) Send(ctx context.Context, to, message string) error {
	if g == nil || g.httpClient == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "whatsapp gateway not configured")
	}
	recipient := strings.TrimSpace(to)
	if recipient == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient number is required")
	}
	if strings.TrimSpace(message) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}

	payload, err := json.Marshal(sendRequest{From: g.sender, To: recipient, Message: message})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal whatsapp message")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build whatsapp request")
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute whatsapp request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		upstream := &pkgerrors.UpstreamError{
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, upstream, "whatsapp send failed")
	}
	return nil
}
