package draft

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brightwash/orderdesk-backend/internal/pricing"
	"github.com/brightwash/orderdesk-backend/pkg/config"
	"github.com/brightwash/orderdesk-backend/pkg/logger"
	"github.com/brightwash/orderdesk-backend/pkg/metrics"
)

type quoteClient interface {
	Quote(ctx context.Context, req pricing.QuoteRequest) (*pricing.Quote, error)
}

// applyFunc receives a finished quote attempt. The token identifies which
// edit of the line the quote belongs to; the receiver discards it when the
// line has moved on.
type applyFunc func(draftID, lineID string, token uint64, quote *pricing.Quote, quoteErr error)

type pendingQuote struct {
	token  uint64
	timer  *time.Timer
	cancel context.CancelFunc
}

// Quoter schedules debounced price quotes per draft line. Rapid edits to the
// same line collapse into one upstream call, and a newer edit cancels the
// previous in-flight request.
type Quoter struct {
	client   quoteClient
	apply    applyFunc
	debounce time.Duration
	timeout  time.Duration
	logg     *logger.Logger
	metrics  *metrics.QuoteMetrics

	mu      sync.Mutex
	pending map[string]*pendingQuote
	closed  bool
	wg      sync.WaitGroup
}

// NewQuoter builds the per-line quote scheduler.
func NewQuoter(client quoteClient, cfg config.QuoteConfig, apply applyFunc, logg *logger.Logger, quoteMetrics *metrics.QuoteMetrics) (*Quoter, error) {
	if client == nil {
		return nil, fmt.Errorf("pricing client required")
	}
	if apply == nil {
		return nil, fmt.Errorf("apply callback required")
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = 400 * time.Millisecond
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Quoter{
		client:   client,
		apply:    apply,
		debounce: debounce,
		timeout:  timeout,
		logg:     logg,
		metrics:  quoteMetrics,
		pending:  make(map[string]*pendingQuote),
	}, nil
}

// Schedule queues a quote for the line after the debounce window. Any pending
// or in-flight quote for the same line is superseded.
func (q *Quoter) Schedule(draftID, lineID string, token uint64, strategy string, req pricing.QuoteRequest) {
	key := quoteKey(draftID, lineID)

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}

	if existing, ok := q.pending[key]; ok {
		q.supersede(existing)
	}

	entry := &pendingQuote{token: token}
	entry.timer = time.AfterFunc(q.debounce, func() {
		q.fire(key, draftID, lineID, token, strategy, req)
	})
	q.pending[key] = entry
}

// Cancel drops any pending or in-flight quote for the line. Called when a
// line is removed or its draft is abandoned.
func (q *Quoter) Cancel(draftID, lineID string) {
	key := quoteKey(draftID, lineID)

	q.mu.Lock()
	defer q.mu.Unlock()
	if entry, ok := q.pending[key]; ok {
		q.supersede(entry)
		delete(q.pending, key)
	}
}

// Close cancels everything outstanding and waits for in-flight requests to
// unwind.
func (q *Quoter) Close() {
	q.mu.Lock()
	q.closed = true
	for key, entry := range q.pending {
		q.supersede(entry)
		delete(q.pending, key)
	}
	q.mu.Unlock()

	q.wg.Wait()
}

func (q *Quoter) fire(key, draftID, lineID string, token uint64, strategy string, req pricing.QuoteRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	q.mu.Lock()
	entry, ok := q.pending[key]
	if !ok || entry.token != token || q.closed {
		// A newer edit replaced this quote while the timer was waiting.
		q.mu.Unlock()
		q.metrics.IncSuperseded()
		return
	}
	entry.cancel = cancel
	q.wg.Add(1)
	q.mu.Unlock()

	defer q.wg.Done()

	start := time.Now()
	quote, err := q.client.Quote(ctx, req)
	q.metrics.ObserveDuration(strategy, time.Since(start))

	q.mu.Lock()
	if current, ok := q.pending[key]; ok && current.token == token {
		delete(q.pending, key)
	}
	superseded := ctx.Err() == context.Canceled
	q.mu.Unlock()

	if superseded {
		q.metrics.IncSuperseded()
		return
	}

	if err != nil {
		q.metrics.IncFailure(strategy)
	} else {
		q.metrics.IncSuccess(strategy)
	}

	q.apply(draftID, lineID, token, quote, err)
}

// supersede stops the entry's timer and cancels its request if one is in
// flight. Caller holds q.mu.
func (q *Quoter) supersede(entry *pendingQuote) {
	if entry.timer != nil {
		entry.timer.Stop()
	}
	if entry.cancel != nil {
		entry.cancel()
	}
}

func quoteKey(draftID, lineID string) string {
	return draftID + "/" + lineID
}
