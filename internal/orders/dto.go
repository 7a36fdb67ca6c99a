package orders

import (
	"github.com/shopspring/decimal"

	"github.com/brightwash/orderdesk-backend/internal/draft"
)

// CreateOrderRequest is the wire payload posted to the order-creation API.
// Derived quote bookkeeping (tokens, in-flight flags) is flattened out; only
// user-entered fields, resolved IDs and the last quoted prices travel.
type CreateOrderRequest struct {
	CustomerID string            `json:"customer_id"`
	Items      []CreateOrderItem `json:"items"`
	Notes      string            `json:"notes,omitempty"`
	DueDate    *string           `json:"due_date,omitempty"`
	Total      decimal.Decimal   `json:"total"`
}

// CreateOrderItem is one submitted line.
type CreateOrderItem struct {
	ProductTypeID       string           `json:"product_type_id"`
	ServiceActionID     string           `json:"service_action_id"`
	OfferingID          string           `json:"offering_id,omitempty"`
	Quantity            int              `json:"quantity"`
	LengthMeters        *decimal.Decimal `json:"length_meters,omitempty"`
	WidthMeters         *decimal.Decimal `json:"width_meters,omitempty"`
	DescriptionOverride string           `json:"description_override,omitempty"`
	Notes               string           `json:"notes,omitempty"`
	UnitPrice           decimal.Decimal  `json:"unit_price"`
	Subtotal            decimal.Decimal  `json:"subtotal"`
	AppliedUnit         string           `json:"applied_unit,omitempty"`
}

// CreatedOrder is the upstream acknowledgement of a submitted order.
type CreatedOrder struct {
	ID     string `json:"id"`
	Number string `json:"number,omitempty"`
	Status string `json:"status,omitempty"`
}

// buildCreateOrderRequest flattens a ready draft into the wire payload.
func buildCreateOrderRequest(d *draft.Draft) CreateOrderRequest {
	summary := draft.Summarize(d)

	req := CreateOrderRequest{
		CustomerID: d.CustomerID,
		Items:      make([]CreateOrderItem, 0, len(d.Items)),
		Notes:      d.Notes,
		DueDate:    d.DueDate,
		Total:      summary.Total,
	}

	for i := range d.Items {
		line := &d.Items[i]
		item := CreateOrderItem{
			ProductTypeID:       line.ProductTypeID,
			ServiceActionID:     line.ServiceActionID,
			OfferingID:          line.OfferingID,
			Quantity:            line.Quantity,
			LengthMeters:        line.LengthMeters,
			WidthMeters:         line.WidthMeters,
			DescriptionOverride: line.DescriptionOverride,
			Notes:               line.Notes,
		}
		if line.QuotedUnitPrice != nil {
			item.UnitPrice = *line.QuotedUnitPrice
		}
		if line.QuotedSubtotal != nil {
			item.Subtotal = *line.QuotedSubtotal
		}
		if line.QuotedAppliedUnit != nil {
			item.AppliedUnit = *line.QuotedAppliedUnit
		}
		req.Items = append(req.Items, item)
	}

	return req
}
