package draft

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/brightwash/orderdesk-backend/pkg/enums"
)

// Line is one entry in a draft order. User-entered fields sit next to the
// derived quote fields the pricing workflow maintains.
type Line struct {
	ID string `json:"id"`

	ProductTypeID   string `json:"product_type_id"`
	ServiceActionID string `json:"service_action_id"`

	Quantity     int              `json:"quantity"`
	LengthMeters *decimal.Decimal `json:"length_meters,omitempty"`
	WidthMeters  *decimal.Decimal `json:"width_meters,omitempty"`

	DescriptionOverride string `json:"description_override,omitempty"`
	Notes               string `json:"notes,omitempty"`

	// Resolved from the catalog when the selection pair lands.
	OfferingID      string                `json:"offering_id,omitempty"`
	OfferingName    string                `json:"offering_name,omitempty"`
	PricingStrategy enums.PricingStrategy `json:"pricing_strategy,omitempty"`

	// Derived quote fields. Only the response matching QuoteToken may write
	// them; older in-flight responses are discarded.
	QuotedUnitPrice   *decimal.Decimal `json:"quoted_unit_price,omitempty"`
	QuotedSubtotal    *decimal.Decimal `json:"quoted_subtotal,omitempty"`
	QuotedAppliedUnit *string          `json:"quoted_applied_unit,omitempty"`
	IsQuoting         bool             `json:"is_quoting"`
	QuoteError        *string          `json:"quote_error,omitempty"`
	QuoteToken        uint64           `json:"quote_token"`
}

// IsPriced reports whether the line holds a usable quote.
func (l *Line) IsPriced() bool {
	return l != nil && l.QuotedSubtotal != nil && l.QuoteError == nil && !l.IsQuoting
}

// QuoteState summarizes the line's quoting lifecycle.
func (l *Line) QuoteState() enums.LineQuoteState {
	switch {
	case l == nil:
		return enums.LineQuoteStatePending
	case l.IsQuoting:
		return enums.LineQuoteStateQuoting
	case l.QuoteError != nil:
		return enums.LineQuoteStateFailed
	case l.QuotedSubtotal != nil:
		return enums.LineQuoteStatePriced
	default:
		return enums.LineQuoteStatePending
	}
}

// clearQuote drops the derived quote fields. Used when a quote fails or when
// pricing-relevant inputs change.
func (l *Line) clearQuote() {
	l.QuotedUnitPrice = nil
	l.QuotedSubtotal = nil
	l.QuotedAppliedUnit = nil
	l.QuoteError = nil
}

// Draft is the in-progress order being assembled at the counter.
type Draft struct {
	ID         string            `json:"id"`
	CustomerID string            `json:"customer_id,omitempty"`
	Status     enums.DraftStatus `json:"status"`
	Items      []Line            `json:"items"`
	Notes      string            `json:"notes,omitempty"`
	// DueDate is a calendar date in YYYY-MM-DD form; time of day is not
	// meaningful for laundry pickup.
	DueDate *string `json:"due_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FindLine returns a pointer into Items for the given line ID.
func (d *Draft) FindLine(lineID string) *Line {
	if d == nil {
		return nil
	}
	for i := range d.Items {
		if d.Items[i].ID == lineID {
			return &d.Items[i]
		}
	}
	return nil
}

// HasQuoting reports whether any line has a quote in flight.
func (d *Draft) HasQuoting() bool {
	if d == nil {
		return false
	}
	for i := range d.Items {
		if d.Items[i].IsQuoting {
			return true
		}
	}
	return false
}
