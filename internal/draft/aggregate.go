package draft

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Summary is the derived view of a draft: the running total and whether the
// draft is ready to submit.
type Summary struct {
	Total       decimal.Decimal `json:"total"`
	CanSubmit   bool            `json:"can_submit"`
	LineCount   int             `json:"line_count"`
	PricedCount int             `json:"priced_count"`
}

// Summarize computes the order total and submit-eligibility from the current
// line states. Pure; lines without a quote contribute zero to the total.
func Summarize(d *Draft) Summary {
	summary := Summary{Total: decimal.Zero}
	if d == nil {
		return summary
	}

	allPriced := true
	for i := range d.Items {
		line := &d.Items[i]
		summary.LineCount++
		if line.QuotedSubtotal != nil {
			summary.Total = summary.Total.Add(*line.QuotedSubtotal)
		}
		if line.IsQuoting || line.QuoteError != nil || line.QuotedSubtotal == nil {
			allPriced = false
			continue
		}
		summary.PricedCount++
	}

	summary.CanSubmit = strings.TrimSpace(d.CustomerID) != "" &&
		len(d.Items) > 0 &&
		allPriced

	return summary
}
