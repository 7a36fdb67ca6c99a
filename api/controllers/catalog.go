package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brightwash/orderdesk-backend/api/responses"
	"github.com/brightwash/orderdesk-backend/api/validators"
	"github.com/brightwash/orderdesk-backend/internal/catalog"
	pkgerrors "github.com/brightwash/orderdesk-backend/pkg/errors"
	"github.com/brightwash/orderdesk-backend/pkg/logger"
)

// CatalogCategories lists the garment categories for the wizard's first step.
func CatalogCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

// CatalogProductTypes lists product types, optionally narrowed by category or
// a search term.
func CatalogProductTypes(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		filter := catalog.ProductTypeFilter{
			CategoryID: validators.SanitizeString(r.URL.Query().Get("category_id")),
			Search:     validators.SanitizeString(r.URL.Query().Get("search")),
		}
		productTypes, err := svc.ListProductTypes(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, productTypes)
	}
}

// CatalogOfferings lists the service offerings available for one product type.
func CatalogOfferings(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		offerings, err := svc.ListOfferings(r.Context(), chi.URLParam(r, "productTypeId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offerings)
	}
}

// CatalogRefresh drops the cached catalog so the next read refetches. Used
// after back-office price changes.
func CatalogRefresh(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		svc.Invalidate()
		responses.WriteSuccess(w, map[string]string{"status": "refreshed"})
	}
}
