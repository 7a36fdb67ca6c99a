package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/brightwash/orderdesk-backend/pkg/enums"
)

// Category is a top-level grouping in the service catalog (e.g. "Garments",
// "Carpets").
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IconURL  string `json:"icon_url,omitempty"`
	Position int    `json:"position,omitempty"`
}

// ProductType is a priceable article within a category (e.g. "Shirt",
// "Wool carpet").
type ProductType struct {
	ID          string `json:"id"`
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ServiceOffering binds a product type to a service action ("wash", "iron",
// "dry clean") together with the pricing rule used to quote it.
type ServiceOffering struct {
	ID                string                `json:"id"`
	ProductTypeID     string                `json:"product_type_id"`
	ServiceActionID   string                `json:"service_action_id"`
	ServiceActionName string                `json:"service_action_name"`
	PricingStrategy   enums.PricingStrategy `json:"pricing_strategy"`
	UnitLabel         string                `json:"unit_label,omitempty"`
	BaseRate          *decimal.Decimal      `json:"base_rate,omitempty"`
}

// ProductTypeFilter narrows a product type listing.
type ProductTypeFilter struct {
	CategoryID string
	Search     string
}
