package draft

import (
	"fmt"
	"strings"
	"time"
)

const dueDateLayout = "2006-01-02"

// FieldError names one invalid field on the draft. Line fields use the
// items[i].field form so the client can surface the error on the right row.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate checks a draft against the submission rules. It returns every
// violation rather than stopping at the first, so the whole form can light up
// at once. The upstream order API re-validates independently.
func Validate(d *Draft) []FieldError {
	var errs []FieldError
	if d == nil {
		return []FieldError{{Field: "draft", Message: "draft is required"}}
	}

	if strings.TrimSpace(d.CustomerID) == "" {
		errs = append(errs, FieldError{Field: "customer_id", Message: "customer is required"})
	}
	if len(d.Items) == 0 {
		errs = append(errs, FieldError{Field: "items", Message: "at least one item is required"})
	}

	for i := range d.Items {
		errs = append(errs, validateLine(i, &d.Items[i])...)
	}

	if d.DueDate != nil {
		if _, err := time.Parse(dueDateLayout, *d.DueDate); err != nil {
			errs = append(errs, FieldError{Field: "due_date", Message: "must be a valid date in YYYY-MM-DD form"})
		}
	}

	return errs
}

func validateLine(index int, line *Line) []FieldError {
	var errs []FieldError
	field := func(name string) string {
		return fmt.Sprintf("items[%d].%s", index, name)
	}

	if strings.TrimSpace(line.ProductTypeID) == "" {
		errs = append(errs, FieldError{Field: field("product_type_id"), Message: "product type is required"})
	}
	if strings.TrimSpace(line.ServiceActionID) == "" {
		errs = append(errs, FieldError{Field: field("service_action_id"), Message: "service action is required"})
	}
	if line.Quantity < 1 {
		errs = append(errs, FieldError{Field: field("quantity"), Message: "quantity must be at least 1"})
	}

	if line.PricingStrategy.RequiresDimensions() {
		if line.LengthMeters == nil || !line.LengthMeters.IsPositive() {
			errs = append(errs, FieldError{Field: field("length_meters"), Message: "length is required for dimension-based pricing"})
		}
		if line.WidthMeters == nil || !line.WidthMeters.IsPositive() {
			errs = append(errs, FieldError{Field: field("width_meters"), Message: "width is required for dimension-based pricing"})
		}
	} else {
		if line.LengthMeters != nil && !line.LengthMeters.IsPositive() {
			errs = append(errs, FieldError{Field: field("length_meters"), Message: "length must be greater than zero"})
		}
		if line.WidthMeters != nil && !line.WidthMeters.IsPositive() {
			errs = append(errs, FieldError{Field: field("width_meters"), Message: "width must be greater than zero"})
		}
	}

	return errs
}
