package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/brightwash/orderdesk-backend/pkg/enums"
)

// Submission is the local journal row written for every order submission
// attempt. The upstream order API remains the source of truth; this table is
// the counter-side audit trail of what was sent and what came back.
type Submission struct {
	ID             uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	DraftID        uuid.UUID              `gorm:"column:draft_id;type:uuid;not null;index"`
	CustomerID     string                 `gorm:"column:customer_id;not null"`
	Payload        json.RawMessage        `gorm:"column:payload;not null"`
	Status         enums.SubmissionStatus `gorm:"column:status;not null"`
	UpstreamID     *string                `gorm:"column:upstream_id"`
	UpstreamStatus *int                   `gorm:"column:upstream_status"`
	LastError      *string                `gorm:"column:last_error"`
	TotalAmount    string                 `gorm:"column:total_amount;not null"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
