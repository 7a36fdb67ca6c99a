package draft

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brightwash/orderdesk-backend/internal/catalog"
	"github.com/brightwash/orderdesk-backend/internal/pricing"
	"github.com/brightwash/orderdesk-backend/pkg/config"
	"github.com/brightwash/orderdesk-backend/pkg/enums"
	pkgerrors "github.com/brightwash/orderdesk-backend/pkg/errors"
	"github.com/brightwash/orderdesk-backend/pkg/logger"
)

const testDebounce = 20 * time.Millisecond

type stubResolver struct {
	strategies map[string]enums.PricingStrategy
}

func (s *stubResolver) ResolveOffering(ctx context.Context, productTypeID, serviceActionID string) (*catalog.ServiceOffering, error) {
	strategy, ok := s.strategies[serviceActionID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service offering not found")
	}
	return &catalog.ServiceOffering{
		ID:                "off-" + serviceActionID,
		ProductTypeID:     productTypeID,
		ServiceActionID:   serviceActionID,
		ServiceActionName: serviceActionID,
		PricingStrategy:   strategy,
	}, nil
}

// stubPricer answers quotes with subtotal = quantity * 10, optionally delaying
// per quantity so tests can stage slow/fast response races.
type stubPricer struct {
	mu       sync.Mutex
	calls    int32
	delays   map[int]time.Duration
	failNext bool
	lastReq  pricing.QuoteRequest
}

func (s *stubPricer) Quote(ctx context.Context, req pricing.QuoteRequest) (*pricing.Quote, error) {
	atomic.AddInt32(&s.calls, 1)
	s.mu.Lock()
	delay := s.delays[req.Quantity]
	fail := s.failNext
	s.failNext = false
	s.lastReq = req
	s.mu.Unlock()

	if delay > 0 {
		// Deliberately ignores ctx cancellation so the token guard, not the
		// transport, is what keeps stale responses out.
		time.Sleep(delay)
	}
	if fail {
		return nil, pkgerrors.New(pkgerrors.CodeQuoteFailed, "price quote failed")
	}

	unit := decimal.NewFromInt(10)
	subtotal := unit.Mul(decimal.NewFromInt(int64(req.Quantity)))
	return &pricing.Quote{UnitPrice: unit, Subtotal: subtotal, AppliedUnit: "piece"}, nil
}

func (s *stubPricer) callCount() int {
	return int(atomic.LoadInt32(&s.calls))
}

func newTestDraftService(t *testing.T, pricer quoteClient) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Store: NewMemoryStore(),
		Catalog: &stubResolver{strategies: map[string]enums.PricingStrategy{
			"sa-wash":   enums.PricingStrategyFixed,
			"sa-carpet": enums.PricingStrategyDimensionBased,
			"sa-vip":    enums.PricingStrategyCustomerSpecific,
		}},
		Pricing: pricer,
		Quote:   config.QuoteConfig{Debounce: testDebounce, Timeout: time.Second},
		Logger:  logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

func waitForLine(t *testing.T, svc Service, draftID, lineID string, cond func(*Line) bool) *Line {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		d, err := svc.Get(context.Background(), draftID)
		if err != nil {
			t.Fatalf("get draft: %v", err)
		}
		if line := d.FindLine(lineID); line != nil && cond(line) {
			return line
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
	return nil
}

func TestAddLineQuotesAsynchronously(t *testing.T) {
	t.Parallel()

	pricer := &stubPricer{}
	svc := newTestDraftService(t, pricer)
	ctx := context.Background()

	d, err := svc.Create(ctx, CreateInput{CustomerID: "C1"})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}

	d, err = svc.AddLine(ctx, d.ID, LineInput{ProductTypeID: "pt-1", ServiceActionID: "sa-wash", Quantity: 2})
	if err != nil {
		t.Fatalf("add line: %v", err)
	}
	lineID := d.Items[0].ID
	if !d.Items[0].IsQuoting {
		t.Fatal("expected line to be quoting right after add")
	}

	line := waitForLine(t, svc, d.ID, lineID, (*Line).IsPriced)
	if !line.QuotedSubtotal.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected subtotal 20, got %s", line.QuotedSubtotal)
	}
	if line.QuotedAppliedUnit == nil || *line.QuotedAppliedUnit != "piece" {
		t.Fatalf("expected applied unit piece, got %v", line.QuotedAppliedUnit)
	}
}

func TestRapidEditsCollapseIntoOneQuote(t *testing.T) {
	t.Parallel()

	pricer := &stubPricer{}
	svc := newTestDraftService(t, pricer)
	ctx := context.Background()

	d, err := svc.Create(ctx, CreateInput{CustomerID: "C1"})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	d, err = svc.AddLine(ctx, d.ID, LineInput{ProductTypeID: "pt-1", ServiceActionID: "sa-wash", Quantity: 1})
	if err != nil {
		t.Fatalf("add line: %v", err)
	}
	lineID := d.Items[0].ID

	// Edits landing inside the debounce window supersede the pending quote.
	for _, quantity := range []int{2, 3, 4, 5} {
		q := quantity
		if _, err := svc.UpdateLine(ctx, d.ID, lineID, UpdateLineInput{Quantity: &q}); err != nil {
			t.Fatalf("update line: %v", err)
		}
	}

	line := waitForLine(t, svc, d.ID, lineID, (*Line).IsPriced)
	if !line.QuotedSubtotal.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected subtotal 50 for final quantity, got %s", line.QuotedSubtotal)
	}
	if pricer.callCount() != 1 {
		t.Fatalf("expected 1 upstream quote call, got %d", pricer.callCount())
	}
}

func TestStaleQuoteResponseIsDiscarded(t *testing.T) {
	t.Parallel()

	pricer := &stubPricer{delays: map[int]time.Duration{1: 300 * time.Millisecond}}
	svc := newTestDraftService(t, pricer)
	ctx := context.Background()

	d, err := svc.Create(ctx, CreateInput{CustomerID: "C1"})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	d, err = svc.AddLine(ctx, d.ID, LineInput{ProductTypeID: "pt-1", ServiceActionID: "sa-wash", Quantity: 1})
	if err != nil {
		t.Fatalf("add line: %v", err)
	}
	lineID := d.Items[0].ID

	// Let the slow quantity=1 request leave the debounce window and get in
	// flight before quantity=2 supersedes it.
	time.Sleep(testDebounce * 3)
	quantity := 2
	if _, err := svc.UpdateLine(ctx, d.ID, lineID, UpdateLineInput{Quantity: &quantity}); err != nil {
		t.Fatalf("update line: %v", err)
	}

	line := waitForLine(t, svc, d.ID, lineID, (*Line).IsPriced)
	if !line.QuotedSubtotal.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected quantity=2 subtotal 20, got %s", line.QuotedSubtotal)
	}

	// The slow response lands after this sleep; it must not overwrite B.
	time.Sleep(400 * time.Millisecond)
	final, err := svc.Get(ctx, d.ID)
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if got := final.FindLine(lineID).QuotedSubtotal; !got.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("stale response overwrote line: got %s", got)
	}
}

func TestQuoteFailureClearsPriceAndSetsError(t *testing.T) {
	t.Parallel()

	pricer := &stubPricer{}
	svc := newTestDraftService(t, pricer)
	ctx := context.Background()

	d, err := svc.Create(ctx, CreateInput{CustomerID: "C1"})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	d, err = svc.AddLine(ctx, d.ID, LineInput{ProductTypeID: "pt-1", ServiceActionID: "sa-wash", Quantity: 1})
	if err != nil {
		t.Fatalf("add line: %v", err)
	}
	lineID := d.Items[0].ID
	waitForLine(t, svc, d.ID, lineID, (*Line).IsPriced)

	pricer.mu.Lock()
	pricer.failNext = true
	pricer.mu.Unlock()

	quantity := 3
	if _, err := svc.UpdateLine(ctx, d.ID, lineID, UpdateLineInput{Quantity: &quantity}); err != nil {
		t.Fatalf("update line: %v", err)
	}

	line := waitForLine(t, svc, d.ID, lineID, func(l *Line) bool {
		return !l.IsQuoting && l.QuoteError != nil
	})
	if line.QuotedSubtotal != nil {
		t.Fatalf("failed quote must clear previous price, got %s", line.QuotedSubtotal)
	}
	if line.QuoteState() != enums.LineQuoteStateFailed {
		t.Fatalf("expected failed state, got %s", line.QuoteState())
	}
}

func TestDimensionLineWaitsForDimensions(t *testing.T) {
	t.Parallel()

	pricer := &stubPricer{}
	svc := newTestDraftService(t, pricer)
	ctx := context.Background()

	d, err := svc.Create(ctx, CreateInput{CustomerID: "C1"})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	d, err = svc.AddLine(ctx, d.ID, LineInput{ProductTypeID: "pt-carpet", ServiceActionID: "sa-carpet", Quantity: 1})
	if err != nil {
		t.Fatalf("add line: %v", err)
	}
	lineID := d.Items[0].ID
	if d.Items[0].IsQuoting {
		t.Fatal("dimension-based line without dimensions must not quote")
	}

	time.Sleep(testDebounce * 3)
	if pricer.callCount() != 0 {
		t.Fatalf("expected no quote calls, got %d", pricer.callCount())
	}

	if _, err := svc.UpdateLine(ctx, d.ID, lineID, UpdateLineInput{LengthMeters: dec("2.5")}); err != nil {
		t.Fatalf("set length: %v", err)
	}
	if _, err := svc.UpdateLine(ctx, d.ID, lineID, UpdateLineInput{WidthMeters: dec("3")}); err != nil {
		t.Fatalf("set width: %v", err)
	}

	line := waitForLine(t, svc, d.ID, lineID, (*Line).IsPriced)
	if line.QuoteState() != enums.LineQuoteStatePriced {
		t.Fatalf("expected priced, got %s", line.QuoteState())
	}

	pricer.mu.Lock()
	sent := pricer.lastReq
	pricer.mu.Unlock()
	if sent.LengthMeters == nil || sent.WidthMeters == nil {
		t.Fatalf("expected dimensions on quote request, got %+v", sent)
	}
}

func TestRemoveLineCancelsPendingQuote(t *testing.T) {
	t.Parallel()

	pricer := &stubPricer{}
	svc := newTestDraftService(t, pricer)
	ctx := context.Background()

	d, err := svc.Create(ctx, CreateInput{CustomerID: "C1"})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	d, err = svc.AddLine(ctx, d.ID, LineInput{ProductTypeID: "pt-1", ServiceActionID: "sa-wash", Quantity: 1})
	if err != nil {
		t.Fatalf("add line: %v", err)
	}
	lineID := d.Items[0].ID

	// Remove before the debounce timer fires.
	if _, err := svc.RemoveLine(ctx, d.ID, lineID); err != nil {
		t.Fatalf("remove line: %v", err)
	}

	time.Sleep(testDebounce * 4)
	if pricer.callCount() != 0 {
		t.Fatalf("expected canceled quote, got %d calls", pricer.callCount())
	}

	final, err := svc.Get(ctx, d.ID)
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if len(final.Items) != 0 {
		t.Fatalf("expected empty draft, got %d items", len(final.Items))
	}
}

func TestCustomerChangeRequotesCustomerSpecificLines(t *testing.T) {
	t.Parallel()

	pricer := &stubPricer{}
	svc := newTestDraftService(t, pricer)
	ctx := context.Background()

	d, err := svc.Create(ctx, CreateInput{CustomerID: "C1"})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	d, err = svc.AddLine(ctx, d.ID, LineInput{ProductTypeID: "pt-1", ServiceActionID: "sa-vip", Quantity: 1})
	if err != nil {
		t.Fatalf("add vip line: %v", err)
	}
	vipLineID := d.Items[0].ID
	d, err = svc.AddLine(ctx, d.ID, LineInput{ProductTypeID: "pt-1", ServiceActionID: "sa-wash", Quantity: 1})
	if err != nil {
		t.Fatalf("add fixed line: %v", err)
	}
	fixedLineID := d.Items[1].ID

	waitForLine(t, svc, d.ID, vipLineID, (*Line).IsPriced)
	waitForLine(t, svc, d.ID, fixedLineID, (*Line).IsPriced)
	callsBefore := pricer.callCount()

	newCustomer := "C2"
	updated, err := svc.Update(ctx, d.ID, UpdateInput{CustomerID: &newCustomer})
	if err != nil {
		t.Fatalf("update customer: %v", err)
	}
	if !updated.FindLine(vipLineID).IsQuoting {
		t.Fatal("expected customer-specific line to re-quote")
	}
	if updated.FindLine(fixedLineID).IsQuoting {
		t.Fatal("fixed-price line must not re-quote on customer change")
	}

	waitForLine(t, svc, d.ID, vipLineID, (*Line).IsPriced)
	if pricer.callCount() != callsBefore+1 {
		t.Fatalf("expected exactly one extra quote call, got %d", pricer.callCount()-callsBefore)
	}

	pricer.mu.Lock()
	sent := pricer.lastReq
	pricer.mu.Unlock()
	if sent.CustomerID != "C2" {
		t.Fatalf("expected customer C2 on quote request, got %q", sent.CustomerID)
	}
}

func TestBeginSubmitGuards(t *testing.T) {
	t.Parallel()

	pricer := &stubPricer{}
	svc := newTestDraftService(t, pricer)
	ctx := context.Background()

	d, err := svc.Create(ctx, CreateInput{CustomerID: "C1"})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}

	// Empty draft fails validation.
	_, err = svc.BeginSubmit(ctx, d.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	d, err = svc.AddLine(ctx, d.ID, LineInput{ProductTypeID: "pt-1", ServiceActionID: "sa-wash", Quantity: 1})
	if err != nil {
		t.Fatalf("add line: %v", err)
	}
	lineID := d.Items[0].ID
	waitForLine(t, svc, d.ID, lineID, (*Line).IsPriced)

	if _, err = svc.BeginSubmit(ctx, d.ID); err != nil {
		t.Fatalf("begin submit: %v", err)
	}

	// Second submit while in flight is rejected.
	_, err = svc.BeginSubmit(ctx, d.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	// Editing while submitting is rejected too.
	quantity := 5
	_, err = svc.UpdateLine(ctx, d.ID, lineID, UpdateLineInput{Quantity: &quantity})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on edit, got %v", err)
	}

	// A failed submission returns the draft to building with data intact.
	if err := svc.FinishSubmit(ctx, d.ID, false); err != nil {
		t.Fatalf("finish submit: %v", err)
	}
	reverted, err := svc.Get(ctx, d.ID)
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if reverted.Status != enums.DraftStatusBuilding {
		t.Fatalf("expected building after failed submit, got %s", reverted.Status)
	}
	if len(reverted.Items) != 1 {
		t.Fatal("failed submit must preserve entered lines")
	}

	// An accepted submission clears the draft.
	if _, err := svc.BeginSubmit(ctx, d.ID); err != nil {
		t.Fatalf("second begin submit: %v", err)
	}
	if err := svc.FinishSubmit(ctx, d.ID, true); err != nil {
		t.Fatalf("finish submit accepted: %v", err)
	}
	_, err = svc.Get(ctx, d.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected draft gone after acceptance, got %v", err)
	}
}

func TestBeginSubmitRejectsWhileQuoting(t *testing.T) {
	t.Parallel()

	pricer := &stubPricer{delays: map[int]time.Duration{1: 200 * time.Millisecond}}
	svc := newTestDraftService(t, pricer)
	ctx := context.Background()

	d, err := svc.Create(ctx, CreateInput{CustomerID: "C1"})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	d, err = svc.AddLine(ctx, d.ID, LineInput{ProductTypeID: "pt-1", ServiceActionID: "sa-wash", Quantity: 1})
	if err != nil {
		t.Fatalf("add line: %v", err)
	}

	_, err = svc.BeginSubmit(ctx, d.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict while quoting, got %v", err)
	}

	waitForLine(t, svc, d.ID, d.Items[0].ID, (*Line).IsPriced)
	if _, err := svc.BeginSubmit(ctx, d.ID); err != nil {
		t.Fatalf("begin submit after pricing: %v", err)
	}
}

func TestAbandonDropsDraft(t *testing.T) {
	t.Parallel()

	pricer := &stubPricer{}
	svc := newTestDraftService(t, pricer)
	ctx := context.Background()

	d, err := svc.Create(ctx, CreateInput{CustomerID: "C1"})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if err := svc.Abandon(ctx, d.ID); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	_, err = svc.Get(ctx, d.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
