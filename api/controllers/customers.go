package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brightwash/orderdesk-backend/api/responses"
	"github.com/brightwash/orderdesk-backend/api/validators"
	"github.com/brightwash/orderdesk-backend/internal/customers"
	pkgerrors "github.com/brightwash/orderdesk-backend/pkg/errors"
	"github.com/brightwash/orderdesk-backend/pkg/logger"
	"github.com/brightwash/orderdesk-backend/pkg/types"
)

const (
	defaultCustomerPageSize = 20
	maxCustomerPageSize     = 100
)

// CustomerDirectory is the slice of the upstream customer API the order desk
// needs.
type CustomerDirectory interface {
	Search(ctx context.Context, input customers.SearchInput) (*types.Page[customers.Customer], error)
	Get(ctx context.Context, customerID string) (*customers.Customer, error)
}

// CustomersSearch backs the customer picker's typeahead.
func CustomersSearch(directory CustomerDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if directory == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer directory unavailable"))
			return
		}

		input := customers.SearchInput{
			Search: validators.SanitizeString(r.URL.Query().Get("search")),
			Cursor: validators.SanitizeString(r.URL.Query().Get("cursor")),
			Limit:  validators.ParseQueryInt(r, "limit", defaultCustomerPageSize, 1, maxCustomerPageSize),
		}
		page, err := directory.Search(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// CustomersGet fetches one customer record.
func CustomersGet(directory CustomerDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if directory == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer directory unavailable"))
			return
		}

		customer, err := directory.Get(r.Context(), chi.URLParam(r, "customerId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}
