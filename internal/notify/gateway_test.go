package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brightwash/orderdesk-backend/pkg/config"
	pkgerrors "github.com/brightwash/orderdesk-backend/pkg/errors"
)

func TestGatewaySend(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req sendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.From != "+5215550009999" || req.To != "+5215550001111" {
			t.Errorf("unexpected addressing: %+v", req)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	gateway, err := NewGateway(config.WhatsAppConfig{
		GatewayURL: server.URL,
		Token:      "secret",
		Sender:     "+5215550009999",
	})
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}

	if err := gateway.Send(context.Background(), "+5215550001111", "your order is ready"); err != nil {
		t.Fatalf("send: %v", err)
	}
}

func TestGatewaySendFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	gateway, err := NewGateway(config.WhatsAppConfig{GatewayURL: server.URL, Sender: "+52"})
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}

	err = gateway.Send(context.Background(), "+5215550001111", "hello")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestGatewayValidatesConfig(t *testing.T) {
	t.Parallel()

	if _, err := NewGateway(config.WhatsAppConfig{Sender: "+52"}); err == nil {
		t.Fatal("expected error without gateway url")
	}
	if _, err := NewGateway(config.WhatsAppConfig{GatewayURL: "http://localhost"}); err == nil {
		t.Fatal("expected error without sender")
	}
}
