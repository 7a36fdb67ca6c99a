package enums

import "fmt"

// PricingStrategy selects how a service offering is priced.
type PricingStrategy string

const (
	PricingStrategyFixed            PricingStrategy = "fixed"
	PricingStrategyPerUnitProduct   PricingStrategy = "per_unit_product"
	PricingStrategyDimensionBased   PricingStrategy = "dimension_based"
	PricingStrategyCustomerSpecific PricingStrategy = "customer_specific"
)

var validPricingStrategies = []PricingStrategy{
	PricingStrategyFixed,
	PricingStrategyPerUnitProduct,
	PricingStrategyDimensionBased,
	PricingStrategyCustomerSpecific,
}

// String implements fmt.Stringer.
func (p PricingStrategy) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PricingStrategy.
func (p PricingStrategy) IsValid() bool {
	for _, candidate := range validPricingStrategies {
		if candidate == p {
			return true
		}
	}
	return false
}

// RequiresDimensions reports whether lines priced with this strategy must carry
// length and width measurements.
func (p PricingStrategy) RequiresDimensions() bool {
	return p == PricingStrategyDimensionBased
}

// ParsePricingStrategy converts raw input into a PricingStrategy.
func ParsePricingStrategy(value string) (PricingStrategy, error) {
	for _, candidate := range validPricingStrategies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pricing strategy %q", value)
}
