package draft

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightwash/orderdesk-backend/internal/catalog"
	"github.com/brightwash/orderdesk-backend/internal/pricing"
	"github.com/brightwash/orderdesk-backend/pkg/config"
	"github.com/brightwash/orderdesk-backend/pkg/enums"
	pkgerrors "github.com/brightwash/orderdesk-backend/pkg/errors"
	"github.com/brightwash/orderdesk-backend/pkg/logger"
	"github.com/brightwash/orderdesk-backend/pkg/metrics"
)

const applyTimeout = 5 * time.Second

// Service owns the draft order lifecycle: building the cart, keeping line
// quotes current, and gating the submit transition.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*Draft, error)
	Get(ctx context.Context, draftID string) (*Draft, error)
	Update(ctx context.Context, draftID string, input UpdateInput) (*Draft, error)
	AddLine(ctx context.Context, draftID string, input LineInput) (*Draft, error)
	UpdateLine(ctx context.Context, draftID, lineID string, input UpdateLineInput) (*Draft, error)
	RemoveLine(ctx context.Context, draftID, lineID string) (*Draft, error)
	Abandon(ctx context.Context, draftID string) error
	BeginSubmit(ctx context.Context, draftID string) (*Draft, error)
	FinishSubmit(ctx context.Context, draftID string, accepted bool) error
	Close()
}

// CreateInput starts a new draft. Everything is optional; the wizard fills
// fields in as the user works.
type CreateInput struct {
	CustomerID string
	Notes      string
	DueDate    *string
}

// UpdateInput patches draft-level fields. Nil means leave unchanged; an empty
// DueDate string clears the date.
type UpdateInput struct {
	CustomerID *string
	Notes      *string
	DueDate    *string
}

// LineInput adds one item to the draft.
type LineInput struct {
	ProductTypeID       string
	ServiceActionID     string
	Quantity            int
	LengthMeters        *decimal.Decimal
	WidthMeters         *decimal.Decimal
	DescriptionOverride string
	Notes               string
}

// UpdateLineInput patches a line. Nil means leave unchanged. Changing the
// service action re-resolves the offering; the product type is fixed for the
// life of a line.
type UpdateLineInput struct {
	ServiceActionID     *string
	Quantity            *int
	LengthMeters        *decimal.Decimal
	WidthMeters         *decimal.Decimal
	DescriptionOverride *string
	Notes               *string
}

type offeringResolver interface {
	ResolveOffering(ctx context.Context, productTypeID, serviceActionID string) (*catalog.ServiceOffering, error)
}

// ServiceParams wires the draft service dependencies.
type ServiceParams struct {
	Store   Store
	Catalog offeringResolver
	Pricing quoteClient
	Quote   config.QuoteConfig
	Logger  *logger.Logger
	Metrics *metrics.QuoteMetrics
}

type service struct {
	store   Store
	catalog offeringResolver
	quoter  *Quoter
	logg    *logger.Logger
	metrics *metrics.QuoteMetrics

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewService constructs the draft service and its quote scheduler.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("draft store required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if params.Pricing == nil {
		return nil, fmt.Errorf("pricing client required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}

	s := &service{
		store:   params.Store,
		catalog: params.Catalog,
		logg:    params.Logger,
		metrics: params.Metrics,
		locks:   make(map[string]*sync.Mutex),
	}

	quoter, err := NewQuoter(params.Pricing, params.Quote, s.applyQuote, params.Logger, params.Metrics)
	if err != nil {
		return nil, err
	}
	s.quoter = quoter
	return s, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Draft, error) {
	now := time.Now().UTC()
	d := &Draft{
		ID:         uuid.NewString(),
		CustomerID: strings.TrimSpace(input.CustomerID),
		Status:     enums.DraftStatusBuilding,
		Items:      []Line{},
		Notes:      input.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if input.DueDate != nil && strings.TrimSpace(*input.DueDate) != "" {
		due := strings.TrimSpace(*input.DueDate)
		d.DueDate = &due
	}
	if err := s.store.Save(ctx, d); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithDraftID(ctx, d.ID), "draft created")
	return d, nil
}

func (s *service) Get(ctx context.Context, draftID string) (*Draft, error) {
	unlock := s.lockDraft(draftID)
	defer unlock()
	return s.store.Get(ctx, draftID)
}

func (s *service) Update(ctx context.Context, draftID string, input UpdateInput) (*Draft, error) {
	unlock := s.lockDraft(draftID)
	defer unlock()

	d, err := s.store.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if err := ensureBuilding(d); err != nil {
		return nil, err
	}

	customerChanged := false
	if input.CustomerID != nil {
		trimmed := strings.TrimSpace(*input.CustomerID)
		customerChanged = trimmed != d.CustomerID
		d.CustomerID = trimmed
	}
	if input.Notes != nil {
		d.Notes = *input.Notes
	}
	if input.DueDate != nil {
		trimmed := strings.TrimSpace(*input.DueDate)
		if trimmed == "" {
			d.DueDate = nil
		} else {
			d.DueDate = &trimmed
		}
	}

	if customerChanged {
		// Customer-specific rates depend on who is paying; those lines need
		// fresh quotes.
		for i := range d.Items {
			if d.Items[i].PricingStrategy == enums.PricingStrategyCustomerSpecific {
				s.requote(d, &d.Items[i])
			}
		}
	}

	d.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *service) AddLine(ctx context.Context, draftID string, input LineInput) (*Draft, error) {
	unlock := s.lockDraft(draftID)
	defer unlock()

	d, err := s.store.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if err := ensureBuilding(d); err != nil {
		return nil, err
	}

	offering, err := s.catalog.ResolveOffering(ctx, input.ProductTypeID, input.ServiceActionID)
	if err != nil {
		return nil, err
	}

	quantity := input.Quantity
	if quantity < 1 {
		quantity = 1
	}

	line := Line{
		ID:                  uuid.NewString(),
		ProductTypeID:       strings.TrimSpace(input.ProductTypeID),
		ServiceActionID:     strings.TrimSpace(input.ServiceActionID),
		Quantity:            quantity,
		LengthMeters:        input.LengthMeters,
		WidthMeters:         input.WidthMeters,
		DescriptionOverride: input.DescriptionOverride,
		Notes:               input.Notes,
		OfferingID:          offering.ID,
		OfferingName:        offering.ServiceActionName,
		PricingStrategy:     offering.PricingStrategy,
	}

	d.Items = append(d.Items, line)
	s.requote(d, &d.Items[len(d.Items)-1])

	d.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, d); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithLineID(s.logg.WithDraftID(ctx, d.ID), line.ID), "line added")
	return d, nil
}

func (s *service) UpdateLine(ctx context.Context, draftID, lineID string, input UpdateLineInput) (*Draft, error) {
	unlock := s.lockDraft(draftID)
	defer unlock()

	d, err := s.store.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if err := ensureBuilding(d); err != nil {
		return nil, err
	}

	line := d.FindLine(lineID)
	if line == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "draft line not found")
	}

	pricingChanged := false

	if input.ServiceActionID != nil && strings.TrimSpace(*input.ServiceActionID) != line.ServiceActionID {
		offering, err := s.catalog.ResolveOffering(ctx, line.ProductTypeID, *input.ServiceActionID)
		if err != nil {
			return nil, err
		}
		line.ServiceActionID = strings.TrimSpace(*input.ServiceActionID)
		line.OfferingID = offering.ID
		line.OfferingName = offering.ServiceActionName
		line.PricingStrategy = offering.PricingStrategy
		pricingChanged = true
	}
	if input.Quantity != nil && *input.Quantity != line.Quantity {
		if *input.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
		line.Quantity = *input.Quantity
		pricingChanged = true
	}
	if input.LengthMeters != nil {
		line.LengthMeters = input.LengthMeters
		pricingChanged = true
	}
	if input.WidthMeters != nil {
		line.WidthMeters = input.WidthMeters
		pricingChanged = true
	}
	if input.DescriptionOverride != nil {
		line.DescriptionOverride = *input.DescriptionOverride
	}
	if input.Notes != nil {
		line.Notes = *input.Notes
	}

	if pricingChanged {
		s.requote(d, line)
	}

	d.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *service) RemoveLine(ctx context.Context, draftID, lineID string) (*Draft, error) {
	unlock := s.lockDraft(draftID)
	defer unlock()

	d, err := s.store.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if err := ensureBuilding(d); err != nil {
		return nil, err
	}

	index := -1
	for i := range d.Items {
		if d.Items[i].ID == lineID {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "draft line not found")
	}

	s.quoter.Cancel(d.ID, lineID)
	d.Items = append(d.Items[:index], d.Items[index+1:]...)

	d.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *service) Abandon(ctx context.Context, draftID string) error {
	unlock := s.lockDraft(draftID)
	defer unlock()

	d, err := s.store.Get(ctx, draftID)
	if err != nil {
		return err
	}
	for i := range d.Items {
		s.quoter.Cancel(d.ID, d.Items[i].ID)
	}
	if err := s.store.Delete(ctx, draftID); err != nil {
		return err
	}
	s.forgetLock(draftID)
	s.logg.Info(s.logg.WithDraftID(ctx, draftID), "draft abandoned")
	return nil
}

// BeginSubmit validates the draft and moves it to submitting. A draft already
// submitting is rejected, which keeps a double-tapped submit button to one
// upstream order.
func (s *service) BeginSubmit(ctx context.Context, draftID string) (*Draft, error) {
	unlock := s.lockDraft(draftID)
	defer unlock()

	d, err := s.store.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if d.Status == enums.DraftStatusSubmitting {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "draft submission already in progress")
	}
	if d.Status == enums.DraftStatusSubmitted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "draft already submitted")
	}

	if fieldErrs := Validate(d); len(fieldErrs) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "draft is not valid").WithDetails(fieldErrs)
	}
	summary := Summarize(d)
	if !summary.CanSubmit {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "draft is not ready to submit").WithDetails(summary)
	}

	d.Status = enums.DraftStatusSubmitting
	d.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// FinishSubmit resolves a submission attempt: accepted drafts are cleared,
// rejected ones return to building with every entered field intact.
func (s *service) FinishSubmit(ctx context.Context, draftID string, accepted bool) error {
	unlock := s.lockDraft(draftID)
	defer unlock()

	if accepted {
		if err := s.store.Delete(ctx, draftID); err != nil {
			return err
		}
		s.forgetLock(draftID)
		return nil
	}

	d, err := s.store.Get(ctx, draftID)
	if err != nil {
		return err
	}
	d.Status = enums.DraftStatusBuilding
	d.UpdatedAt = time.Now().UTC()
	return s.store.Save(ctx, d)
}

// Close stops the quote scheduler.
func (s *service) Close() {
	s.quoter.Close()
}

// requote bumps the line's token and schedules a fresh quote. Lines that
// cannot be quoted yet (missing dimensions for dimension-based pricing) drop
// back to pending instead. Caller holds the draft lock.
func (s *service) requote(d *Draft, line *Line) {
	line.QuoteToken++

	if !quotable(line) {
		s.quoter.Cancel(d.ID, line.ID)
		line.IsQuoting = false
		line.clearQuote()
		return
	}

	line.IsQuoting = true
	line.QuoteError = nil

	req := pricing.QuoteRequest{
		ProductTypeID:   line.ProductTypeID,
		ServiceActionID: line.ServiceActionID,
		Quantity:        line.Quantity,
		LengthMeters:    line.LengthMeters,
		WidthMeters:     line.WidthMeters,
	}
	if line.PricingStrategy == enums.PricingStrategyCustomerSpecific {
		req.CustomerID = d.CustomerID
	}
	s.quoter.Schedule(d.ID, line.ID, line.QuoteToken, line.PricingStrategy.String(), req)
}

// applyQuote lands a finished quote attempt on its line. Runs off the quote
// goroutine, so it re-loads the draft under the draft lock and verifies the
// token before touching anything.
func (s *service) applyQuote(draftID, lineID string, token uint64, quote *pricing.Quote, quoteErr error) {
	ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
	defer cancel()

	unlock := s.lockDraft(draftID)
	defer unlock()

	d, err := s.store.Get(ctx, draftID)
	if err != nil {
		// Draft expired or was abandoned while the quote was in flight.
		return
	}
	line := d.FindLine(lineID)
	if line == nil || line.QuoteToken != token {
		s.metrics.IncSuperseded()
		return
	}

	line.IsQuoting = false
	if quoteErr != nil {
		// Policy: a failed quote clears previous quoted values so a stale
		// price can never ride along into submission.
		line.clearQuote()
		msg := publicQuoteError(quoteErr)
		line.QuoteError = &msg
		logCtx := s.logg.WithLineID(s.logg.WithDraftID(ctx, draftID), lineID)
		s.logg.Warn(s.logg.WithField(logCtx, "error", quoteErr.Error()), "quote failed")
	} else {
		unitPrice := quote.UnitPrice
		subtotal := quote.Subtotal
		line.QuotedUnitPrice = &unitPrice
		line.QuotedSubtotal = &subtotal
		line.QuoteError = nil
		if quote.AppliedUnit != "" {
			appliedUnit := quote.AppliedUnit
			line.QuotedAppliedUnit = &appliedUnit
		}
	}

	d.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, d); err != nil {
		s.logg.Error(s.logg.WithDraftID(ctx, draftID), "failed to persist quote result", err)
	}
}

// quotable reports whether the line carries everything the pricing API needs.
func quotable(line *Line) bool {
	if strings.TrimSpace(line.ProductTypeID) == "" || strings.TrimSpace(line.ServiceActionID) == "" {
		return false
	}
	if line.Quantity < 1 {
		return false
	}
	if line.PricingStrategy.RequiresDimensions() {
		if line.LengthMeters == nil || !line.LengthMeters.IsPositive() {
			return false
		}
		if line.WidthMeters == nil || !line.WidthMeters.IsPositive() {
			return false
		}
	}
	return true
}

func ensureBuilding(d *Draft) error {
	if d.Status != enums.DraftStatusBuilding {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("draft is %s and cannot be edited", d.Status))
	}
	return nil
}

func publicQuoteError(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return "price quote failed"
}

func (s *service) lockDraft(draftID string) func() {
	s.locksMu.Lock()
	lock, ok := s.locks[draftID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[draftID] = lock
	}
	s.locksMu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (s *service) forgetLock(draftID string) {
	s.locksMu.Lock()
	delete(s.locks, draftID)
	s.locksMu.Unlock()
}
