package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/brightwash/orderdesk-backend/internal/customers"
	"github.com/brightwash/orderdesk-backend/internal/orders"
)

// formatOrderSubmitted renders the confirmation text sent to the customer
// after their order lands.
func formatOrderSubmitted(event orders.OrderSubmittedEvent, customer *customers.Customer) string {
	var b strings.Builder

	name := ""
	if customer != nil && strings.TrimSpace(customer.Name) != "" {
		name = " " + firstName(customer.Name)
	}
	fmt.Fprintf(&b, "Hi%s! We received your order", name)
	if event.OrderNumber != "" {
		fmt.Fprintf(&b, " %s", event.OrderNumber)
	}
	fmt.Fprintf(&b, " (%d item", event.LineCount)
	if event.LineCount != 1 {
		b.WriteString("s")
	}
	fmt.Fprintf(&b, ", total %s).", event.Total)

	if event.DueDate != nil {
		if due, err := time.Parse("2006-01-02", *event.DueDate); err == nil {
			fmt.Fprintf(&b, " It will be ready by %s.", due.Format("Monday, Jan 2"))
		}
	}

	b.WriteString(" Thank you!")
	return b.String()
}

func firstName(full string) string {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return full
	}
	return parts[0]
}
