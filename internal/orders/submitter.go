package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/brightwash/orderdesk-backend/internal/draft"
	"github.com/brightwash/orderdesk-backend/pkg/db/models"
	pkgerrors "github.com/brightwash/orderdesk-backend/pkg/errors"
	"github.com/brightwash/orderdesk-backend/pkg/logger"
	"github.com/brightwash/orderdesk-backend/pkg/metrics"
)

const defaultLockTTL = 30 * time.Second

// Submitter drives one submission attempt end to end: lock, validate, journal,
// post upstream, and resolve the draft.
type Submitter interface {
	Submit(ctx context.Context, draftID string) (*SubmitResult, error)
}

// SubmitResult reports an accepted submission.
type SubmitResult struct {
	Order        *CreatedOrder `json:"order"`
	SubmissionID string        `json:"submission_id"`
	Total        string        `json:"total"`
}

type draftGateway interface {
	BeginSubmit(ctx context.Context, draftID string) (*draft.Draft, error)
	FinishSubmit(ctx context.Context, draftID string, accepted bool) error
}

type orderCreator interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreatedOrder, error)
}

type submitLocker interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	SubmitLockKey(draftID string) string
}

type journalRecorder interface {
	RecordAttempt(ctx context.Context, draftID uuid.UUID, customerID string, payload any, totalAmount string) (*models.Submission, error)
	MarkAccepted(ctx context.Context, id uuid.UUID, upstreamID string, upstreamStatus int) error
	MarkRejected(ctx context.Context, id uuid.UUID, upstreamStatus int, reason string) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// Publisher abstracts the Pub/Sub publisher handle for submitted-order
// events.
type Publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) PublishResult
}

// PublishResult resolves to the server-assigned message ID.
type PublishResult interface {
	Get(ctx context.Context) (string, error)
}

type gcpPublisher struct {
	pub *gcppubsub.Publisher
}

// NewGCPPublisher adapts a Pub/Sub v2 publisher to the Publisher interface.
func NewGCPPublisher(pub *gcppubsub.Publisher) Publisher {
	if pub == nil {
		return nil
	}
	return &gcpPublisher{pub: pub}
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) PublishResult {
	return p.pub.Publish(ctx, msg)
}

// SubmitterParams wires the submitter dependencies. Publisher is optional;
// without it accepted orders simply skip the event.
type SubmitterParams struct {
	Drafts    draftGateway
	Client    orderCreator
	Locker    submitLocker
	Journal   journalRecorder
	Publisher Publisher
	LockTTL   time.Duration
	Logger    *logger.Logger
	Metrics   *metrics.SubmissionMetrics
}

type submitter struct {
	drafts    draftGateway
	client    orderCreator
	locker    submitLocker
	journal   journalRecorder
	publisher Publisher
	lockTTL   time.Duration
	logg      *logger.Logger
	metrics   *metrics.SubmissionMetrics
}

// NewSubmitter constructs the order submitter.
func NewSubmitter(params SubmitterParams) (Submitter, error) {
	if params.Drafts == nil {
		return nil, fmt.Errorf("draft service required")
	}
	if params.Client == nil {
		return nil, fmt.Errorf("orders client required")
	}
	if params.Locker == nil {
		return nil, fmt.Errorf("submit locker required")
	}
	if params.Journal == nil {
		return nil, fmt.Errorf("journal repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	lockTTL := params.LockTTL
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	return &submitter{
		drafts:    params.Drafts,
		client:    params.Client,
		locker:    params.Locker,
		journal:   params.Journal,
		publisher: params.Publisher,
		lockTTL:   lockTTL,
		logg:      params.Logger,
		metrics:   params.Metrics,
	}, nil
}

func (s *submitter) Submit(ctx context.Context, draftID string) (*SubmitResult, error) {
	trimmed := strings.TrimSpace(draftID)
	draftUUID, err := uuid.Parse(trimmed)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "draft ID must be a UUID")
	}
	logCtx := s.logg.WithDraftID(ctx, trimmed)

	// Cross-instance single flight. The draft status transition guards within
	// one process; the lock guards across processes sharing the store.
	lockKey := s.locker.SubmitLockKey(trimmed)
	acquired, err := s.locker.SetNX(ctx, lockKey, "1", s.lockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire submit lock")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "draft submission already in progress")
	}
	defer func() {
		if err := s.locker.Del(context.WithoutCancel(ctx), lockKey); err != nil {
			s.logg.Error(logCtx, "failed to release submit lock", err)
		}
	}()

	d, err := s.drafts.BeginSubmit(ctx, trimmed)
	if err != nil {
		return nil, err
	}

	req := buildCreateOrderRequest(d)
	submission, err := s.journal.RecordAttempt(ctx, draftUUID, d.CustomerID, req, req.Total.StringFixed(2))
	if err != nil {
		s.revert(logCtx, trimmed)
		return nil, err
	}

	order, err := s.client.CreateOrder(ctx, req)
	if err != nil {
		s.resolveFailure(logCtx, trimmed, submission.ID, err)
		return nil, err
	}

	if err := s.journal.MarkAccepted(ctx, submission.ID, order.ID, http.StatusCreated); err != nil {
		s.logg.Error(logCtx, "failed to journal acceptance", err)
	}
	if err := s.drafts.FinishSubmit(ctx, trimmed, true); err != nil {
		s.logg.Error(logCtx, "failed to clear submitted draft", err)
	}
	s.metrics.IncOutcome("accepted")
	s.publishSubmitted(logCtx, d, order, submission, req)

	s.logg.Info(s.logg.WithField(logCtx, "order_id", order.ID), "order submitted")
	return &SubmitResult{
		Order:        order,
		SubmissionID: submission.ID.String(),
		Total:        req.Total.StringFixed(2),
	}, nil
}

// resolveFailure journals the verdict and returns the draft to building so
// nothing the operator typed is lost.
func (s *submitter) resolveFailure(ctx context.Context, draftID string, submissionID uuid.UUID, submitErr error) {
	var upstream *pkgerrors.UpstreamError
	typed := pkgerrors.As(submitErr)

	switch {
	case typed != nil && typed.Code() == pkgerrors.CodeValidation && errors.As(submitErr, &upstream):
		if err := s.journal.MarkRejected(ctx, submissionID, upstream.Status, submitErr.Error()); err != nil {
			s.logg.Error(ctx, "failed to journal rejection", err)
		}
		s.metrics.IncOutcome("rejected")
	default:
		if err := s.journal.MarkFailed(ctx, submissionID, submitErr.Error()); err != nil {
			s.logg.Error(ctx, "failed to journal failure", err)
		}
		s.metrics.IncOutcome("failed")
	}

	s.revert(ctx, draftID)
}

func (s *submitter) revert(ctx context.Context, draftID string) {
	if err := s.drafts.FinishSubmit(ctx, draftID, false); err != nil {
		s.logg.Error(ctx, "failed to revert draft to building", err)
	}
}

// publishSubmitted emits the order.submitted event. Best effort; a publish
// failure never rolls back an accepted order.
func (s *submitter) publishSubmitted(ctx context.Context, d *draft.Draft, order *CreatedOrder, submission *models.Submission, req CreateOrderRequest) {
	if s.publisher == nil {
		return
	}

	event := OrderSubmittedEvent{
		OrderID:      order.ID,
		OrderNumber:  order.Number,
		DraftID:      d.ID,
		CustomerID:   d.CustomerID,
		Total:        req.Total.StringFixed(2),
		LineCount:    len(req.Items),
		DueDate:      req.DueDate,
		SubmittedAt:  time.Now().UTC(),
		SubmissionID: submission.ID.String(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logg.Error(ctx, "failed to encode submitted event", err)
		return
	}

	result := s.publisher.Publish(ctx, &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			EventTypeAttribute: EventTypeOrderSubmitted,
			"draft_id":         d.ID,
		},
	})
	if result == nil {
		s.logg.Error(ctx, "publisher returned nil result", nil)
		return
	}
	if _, err := result.Get(ctx); err != nil {
		s.logg.Error(ctx, "failed to publish submitted event", err)
	}
}
