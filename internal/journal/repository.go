package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brightwash/orderdesk-backend/pkg/db/models"
	"github.com/brightwash/orderdesk-backend/pkg/enums"
	pkgerrors "github.com/brightwash/orderdesk-backend/pkg/errors"
)

// Repository persists the local submission journal.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) (*Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db required")
	}
	return &Repository{db: db}, nil
}

// RecordAttempt journals an outgoing submission before it leaves the process.
func (r *Repository) RecordAttempt(ctx context.Context, draftID uuid.UUID, customerID string, payload any, totalAmount string) (*models.Submission, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal submission payload")
	}

	submission := &models.Submission{
		ID:          uuid.New(),
		DraftID:     draftID,
		CustomerID:  customerID,
		Payload:     body,
		Status:      enums.SubmissionStatusPending,
		TotalAmount: totalAmount,
	}
	if err := r.db.WithContext(ctx).Create(submission).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record submission attempt")
	}
	return submission, nil
}

// MarkAccepted records the upstream order ID on a successful submission.
func (r *Repository) MarkAccepted(ctx context.Context, id uuid.UUID, upstreamID string, upstreamStatus int) error {
	return r.mark(ctx, id, map[string]any{
		"status":          enums.SubmissionStatusAccepted,
		"upstream_id":     upstreamID,
		"upstream_status": upstreamStatus,
		"last_error":      nil,
	})
}

// MarkRejected records an upstream rejection (validation or business rule).
func (r *Repository) MarkRejected(ctx context.Context, id uuid.UUID, upstreamStatus int, reason string) error {
	return r.mark(ctx, id, map[string]any{
		"status":          enums.SubmissionStatusRejected,
		"upstream_status": upstreamStatus,
		"last_error":      reason,
	})
}

// MarkFailed records a transport-level failure where no verdict arrived.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.mark(ctx, id, map[string]any{
		"status":     enums.SubmissionStatusFailed,
		"last_error": reason,
	})
}

func (r *Repository) mark(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "update submission")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "submission not found")
	}
	return nil
}

// FindByID loads one journal row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "submission not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load submission")
	}
	return &submission, nil
}

// ListByDraft returns every attempt journaled for a draft, oldest first.
func (r *Repository) ListByDraft(ctx context.Context, draftID uuid.UUID) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.WithContext(ctx).
		Where("draft_id = ?", draftID).
		Order("created_at ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list submissions")
	}
	return submissions, nil
}

// Recent returns the latest journal rows for the operator review screen.
func (r *Repository) Recent(ctx context.Context, limit int) ([]models.Submission, error) {
	if limit <= 0 {
		limit = 50
	}
	var submissions []models.Submission
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&submissions).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent submissions")
	}
	return submissions, nil
}
