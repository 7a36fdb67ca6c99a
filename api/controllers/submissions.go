package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/brightwash/orderdesk-backend/api/responses"
	"github.com/brightwash/orderdesk-backend/api/validators"
	pkgerrors "github.com/brightwash/orderdesk-backend/pkg/errors"
	"github.com/brightwash/orderdesk-backend/pkg/db/models"
	"github.com/brightwash/orderdesk-backend/pkg/logger"
)

const (
	defaultSubmissionLimit = 20
	maxSubmissionLimit     = 100
)

// SubmissionJournal is the read side of the local submission audit trail.
type SubmissionJournal interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	ListByDraft(ctx context.Context, draftID uuid.UUID) ([]models.Submission, error)
	Recent(ctx context.Context, limit int) ([]models.Submission, error)
}

// SubmissionsRecent lists the latest submission attempts across all drafts.
func SubmissionsRecent(journal SubmissionJournal, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if journal == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "submission journal unavailable"))
			return
		}

		limit := validators.ParseQueryInt(r, "limit", defaultSubmissionLimit, 1, maxSubmissionLimit)
		submissions, err := journal.Recent(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, submissions)
	}
}

// SubmissionsGet fetches one journal entry.
func SubmissionsGet(journal SubmissionJournal, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if journal == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "submission journal unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "submissionId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid submission id"))
			return
		}

		submission, err := journal.FindByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, submission)
	}
}

// SubmissionsByDraft lists every attempt recorded for one draft, oldest
// first.
func SubmissionsByDraft(journal SubmissionJournal, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if journal == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "submission journal unavailable"))
			return
		}

		draftID, err := uuid.Parse(chi.URLParam(r, "draftId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid draft id"))
			return
		}

		submissions, err := journal.ListByDraft(r.Context(), draftID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, submissions)
	}
}
