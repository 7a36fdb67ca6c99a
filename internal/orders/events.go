package orders

import "time"

// EventTypeOrderSubmitted is the attribute value stamped on submitted-order
// messages so consumers can filter without decoding the body.
const EventTypeOrderSubmitted = "order.submitted"

// EventTypeAttribute is the Pub/Sub attribute key carrying the event type.
const EventTypeAttribute = "event_type"

// OrderSubmittedEvent is the message body published after the upstream order
// API accepts a submission. The notifier worker turns these into customer
// notifications.
type OrderSubmittedEvent struct {
	OrderID      string    `json:"order_id"`
	OrderNumber  string    `json:"order_number,omitempty"`
	DraftID      string    `json:"draft_id"`
	CustomerID   string    `json:"customer_id"`
	Total        string    `json:"total"`
	LineCount    int       `json:"line_count"`
	DueDate      *string   `json:"due_date,omitempty"`
	SubmittedAt  time.Time `json:"submitted_at"`
	SubmissionID string    `json:"submission_id"`
}
