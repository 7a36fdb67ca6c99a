package enums

// LineQuoteState summarizes the quoting lifecycle of a single draft line.
type LineQuoteState string

const (
	LineQuoteStatePending LineQuoteState = "pending"
	LineQuoteStateQuoting LineQuoteState = "quoting"
	LineQuoteStatePriced  LineQuoteState = "priced"
	LineQuoteStateFailed  LineQuoteState = "failed"
)

// String implements fmt.Stringer.
func (l LineQuoteState) String() string {
	return string(l)
}
