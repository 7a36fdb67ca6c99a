package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/brightwash/orderdesk-backend/pkg/config"
	pkgerrors "github.com/brightwash/orderdesk-backend/pkg/errors"
	"github.com/brightwash/orderdesk-backend/pkg/metrics"
)

const (
	resourceCategories   = "categories"
	resourceProductTypes = "product_types"
	resourceOfferings    = "offerings"
)

// Service exposes cached catalog reads for the order-building wizard.
type Service interface {
	ListCategories(ctx context.Context) ([]Category, error)
	ListProductTypes(ctx context.Context, filter ProductTypeFilter) ([]ProductType, error)
	ListOfferings(ctx context.Context, productTypeID string) ([]ServiceOffering, error)
	ResolveOffering(ctx context.Context, productTypeID, serviceActionID string) (*ServiceOffering, error)
	Invalidate()
}

type fetcher interface {
	ListCategories(ctx context.Context) ([]Category, error)
	ListProductTypes(ctx context.Context, filter ProductTypeFilter) ([]ProductType, error)
	ListOfferings(ctx context.Context, productTypeID string) ([]ServiceOffering, error)
}

type service struct {
	client fetcher

	categories   *readThroughCache[Category]
	productTypes *readThroughCache[ProductType]
	offerings    *readThroughCache[ServiceOffering]

	metrics *metrics.CatalogMetrics
}

// NewService constructs the catalog service with per-resource staleness
// windows.
func NewService(client fetcher, cfg config.CatalogConfig, catalogMetrics *metrics.CatalogMetrics) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("catalog client required")
	}
	return &service{
		client:       client,
		categories:   newReadThroughCache[Category](cfg.CategoriesTTL, nil),
		productTypes: newReadThroughCache[ProductType](cfg.ProductTypesTTL, nil),
		offerings:    newReadThroughCache[ServiceOffering](cfg.OfferingsTTL, nil),
		metrics:      catalogMetrics,
	}, nil
}

func (s *service) ListCategories(ctx context.Context) ([]Category, error) {
	value, outcome, err := s.categories.get(ctx, "all", s.client.ListCategories)
	s.record(resourceCategories, outcome, err)
	return value, err
}

func (s *service) ListProductTypes(ctx context.Context, filter ProductTypeFilter) ([]ProductType, error) {
	key := productTypeCacheKey(filter)
	value, outcome, err := s.productTypes.get(ctx, key, func(ctx context.Context) ([]ProductType, error) {
		return s.client.ListProductTypes(ctx, filter)
	})
	s.record(resourceProductTypes, outcome, err)
	return value, err
}

func (s *service) ListOfferings(ctx context.Context, productTypeID string) ([]ServiceOffering, error) {
	trimmed := strings.TrimSpace(productTypeID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product type ID is required")
	}
	value, outcome, err := s.offerings.get(ctx, trimmed, func(ctx context.Context) ([]ServiceOffering, error) {
		return s.client.ListOfferings(ctx, trimmed)
	})
	s.record(resourceOfferings, outcome, err)
	return value, err
}

// ResolveOffering finds the offering matching a product type and service
// action pair. The pair uniquely identifies an offering in the catalog.
func (s *service) ResolveOffering(ctx context.Context, productTypeID, serviceActionID string) (*ServiceOffering, error) {
	action := strings.TrimSpace(serviceActionID)
	if action == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service action ID is required")
	}

	offerings, err := s.ListOfferings(ctx, productTypeID)
	if err != nil {
		return nil, err
	}
	for i := range offerings {
		if offerings[i].ServiceActionID == action {
			offering := offerings[i]
			return &offering, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service offering not found").
		WithDetails(map[string]string{
			"product_type_id":   strings.TrimSpace(productTypeID),
			"service_action_id": action,
		})
}

// Invalidate drops every cached listing so the next read goes upstream.
func (s *service) Invalidate() {
	s.categories.invalidate()
	s.productTypes.invalidate()
	s.offerings.invalidate()
}

func (s *service) record(resource string, outcome cacheOutcome, err error) {
	switch {
	case err != nil:
		// A miss with no stale fallback; the error already tells the story.
	case outcome == outcomeHit:
		s.metrics.IncHit(resource)
	case outcome == outcomeStaleServed:
		s.metrics.IncStaleServed(resource)
	default:
		s.metrics.IncMiss(resource)
	}
}

func productTypeCacheKey(filter ProductTypeFilter) string {
	return url.Values{
		"category_id": []string{strings.TrimSpace(filter.CategoryID)},
		"search":      []string{strings.TrimSpace(strings.ToLower(filter.Search))},
	}.Encode()
}
