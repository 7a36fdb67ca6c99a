package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/brightwash/orderdesk-backend/api/responses"
	"github.com/brightwash/orderdesk-backend/api/validators"
	"github.com/brightwash/orderdesk-backend/internal/draft"
	"github.com/brightwash/orderdesk-backend/internal/orders"
	pkgerrors "github.com/brightwash/orderdesk-backend/pkg/errors"
	"github.com/brightwash/orderdesk-backend/pkg/logger"
)

// draftResponse pairs the draft with its derived summary so the front-end can
// render the running total and submit-button state from one payload.
type draftResponse struct {
	Draft   *draft.Draft  `json:"draft"`
	Summary draft.Summary `json:"summary"`
}

func newDraftResponse(d *draft.Draft) draftResponse {
	return draftResponse{Draft: d, Summary: draft.Summarize(d)}
}

type createDraftRequest struct {
	CustomerID string  `json:"customer_id"`
	Notes      string  `json:"notes"`
	DueDate    *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

type updateDraftRequest struct {
	CustomerID *string `json:"customer_id"`
	Notes      *string `json:"notes"`
	DueDate    *string `json:"due_date"`
}

type lineRequest struct {
	ProductTypeID       string           `json:"product_type_id" validate:"required"`
	ServiceActionID     string           `json:"service_action_id" validate:"required"`
	Quantity            int              `json:"quantity" validate:"required,min=1"`
	LengthMeters        *decimal.Decimal `json:"length_meters"`
	WidthMeters         *decimal.Decimal `json:"width_meters"`
	DescriptionOverride string           `json:"description_override"`
	Notes               string           `json:"notes"`
}

type updateLineRequest struct {
	ServiceActionID     *string          `json:"service_action_id"`
	Quantity            *int             `json:"quantity" validate:"omitempty,min=1"`
	LengthMeters        *decimal.Decimal `json:"length_meters"`
	WidthMeters         *decimal.Decimal `json:"width_meters"`
	DescriptionOverride *string          `json:"description_override"`
	Notes               *string          `json:"notes"`
}

// DraftCreate starts a new draft order.
func DraftCreate(svc draft.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "draft service unavailable"))
			return
		}

		var payload createDraftRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), draft.CreateInput{
			CustomerID: validators.SanitizeString(payload.CustomerID),
			Notes:      validators.SanitizeString(payload.Notes),
			DueDate:    payload.DueDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newDraftResponse(created))
	}
}

// DraftGet returns the draft with its summary.
func DraftGet(svc draft.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "draft service unavailable"))
			return
		}

		found, err := svc.Get(r.Context(), chi.URLParam(r, "draftId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newDraftResponse(found))
	}
}

// DraftUpdate patches draft-level fields. Changing the customer re-quotes the
// lines whose pricing depends on who is paying.
func DraftUpdate(svc draft.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "draft service unavailable"))
			return
		}

		var payload updateDraftRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), chi.URLParam(r, "draftId"), draft.UpdateInput{
			CustomerID: payload.CustomerID,
			Notes:      payload.Notes,
			DueDate:    payload.DueDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newDraftResponse(updated))
	}
}

// DraftAbandon discards the draft and cancels any in-flight quotes.
func DraftAbandon(svc draft.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "draft service unavailable"))
			return
		}

		if err := svc.Abandon(r.Context(), chi.URLParam(r, "draftId")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "abandoned"})
	}
}

// DraftAddLine appends an item and schedules its price quote.
func DraftAddLine(svc draft.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "draft service unavailable"))
			return
		}

		var payload lineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.AddLine(r.Context(), chi.URLParam(r, "draftId"), draft.LineInput{
			ProductTypeID:       validators.SanitizeString(payload.ProductTypeID),
			ServiceActionID:     validators.SanitizeString(payload.ServiceActionID),
			Quantity:            payload.Quantity,
			LengthMeters:        payload.LengthMeters,
			WidthMeters:         payload.WidthMeters,
			DescriptionOverride: validators.SanitizeString(payload.DescriptionOverride),
			Notes:               validators.SanitizeString(payload.Notes),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newDraftResponse(updated))
	}
}

// DraftUpdateLine patches a line; pricing-relevant edits re-quote it.
func DraftUpdateLine(svc draft.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "draft service unavailable"))
			return
		}

		var payload updateLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateLine(r.Context(), chi.URLParam(r, "draftId"), chi.URLParam(r, "lineId"), draft.UpdateLineInput{
			ServiceActionID:     payload.ServiceActionID,
			Quantity:            payload.Quantity,
			LengthMeters:        payload.LengthMeters,
			WidthMeters:         payload.WidthMeters,
			DescriptionOverride: payload.DescriptionOverride,
			Notes:               payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newDraftResponse(updated))
	}
}

// DraftRemoveLine drops a line and cancels its pending quote.
func DraftRemoveLine(svc draft.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "draft service unavailable"))
			return
		}

		updated, err := svc.RemoveLine(r.Context(), chi.URLParam(r, "draftId"), chi.URLParam(r, "lineId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newDraftResponse(updated))
	}
}

// DraftValidation previews the field errors the submit gate would raise,
// without changing draft state.
func DraftValidation(svc draft.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "draft service unavailable"))
			return
		}

		found, err := svc.Get(r.Context(), chi.URLParam(r, "draftId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fieldErrors := draft.Validate(found)
		responses.WriteSuccess(w, map[string]any{
			"errors":  fieldErrors,
			"valid":   len(fieldErrors) == 0,
			"summary": draft.Summarize(found),
		})
	}
}

// DraftSubmit turns the draft into a real order upstream.
func DraftSubmit(submitter orders.Submitter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if submitter == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order submitter unavailable"))
			return
		}

		result, err := submitter.Submit(r.Context(), chi.URLParam(r, "draftId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
