package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/brightwash/orderdesk-backend/internal/customers"
	"github.com/brightwash/orderdesk-backend/internal/orders"
	"github.com/brightwash/orderdesk-backend/pkg/logger"
)

type messageSender interface {
	Send(ctx context.Context, to, message string) error
}

type customerReader interface {
	Get(ctx context.Context, customerID string) (*customers.Customer, error)
}

type subscription interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

// Consumer watches submitted-order events and sends the customer a WhatsApp
// confirmation.
type Consumer struct {
	subscription subscription
	gateway      messageSender
	customers    customerReader
	logg         *logger.Logger
}

// NewConsumer builds the order notification consumer.
func NewConsumer(sub subscription, gateway messageSender, customerAPI customerReader, logg *logger.Logger) (*Consumer, error) {
	if sub == nil {
		return nil, fmt.Errorf("subscription required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("whatsapp gateway required")
	}
	if customerAPI == nil {
		return nil, fmt.Errorf("customers client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		subscription: sub,
		gateway:      gateway,
		customers:    customerAPI,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes[orders.EventTypeAttribute]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != orders.EventTypeOrderSubmitted {
		c.logg.Info(logCtx, "skipping non-order event")
		return processResult{ack: true}
	}

	var event orders.OrderSubmittedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.logg.Error(logCtx, "failed to decode submitted event", err)
		return processResult{ack: true}
	}
	logCtx = c.logg.WithCustomerID(c.logg.WithField(logCtx, "order_id", event.OrderID), event.CustomerID)

	customer, err := c.customers.Get(ctx, event.CustomerID)
	if err != nil {
		// Customer lookup is flaky territory; retry via nack so transient
		// upstream failures do not drop the notification.
		c.logg.Error(logCtx, "failed to load customer", err)
		return processResult{nack: true}
	}

	recipient := recipientNumber(customer)
	if recipient == "" {
		c.logg.Info(logCtx, "customer has no whatsapp number, skipping")
		return processResult{ack: true}
	}

	message := formatOrderSubmitted(event, customer)
	if err := c.gateway.Send(ctx, recipient, message); err != nil {
		c.logg.Error(logCtx, "failed to send whatsapp confirmation", err)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "order confirmation sent")
	return processResult{ack: true}
}

func recipientNumber(customer *customers.Customer) string {
	if customer == nil {
		return ""
	}
	if number := strings.TrimSpace(customer.WhatsApp); number != "" {
		return number
	}
	return strings.TrimSpace(customer.Phone)
}
