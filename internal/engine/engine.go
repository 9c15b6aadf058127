// Package engine owns the keyed collection of order books and the single
// processing worker that drains the inbound order queue, routes each
// order to its book, and drives the match.
package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	tomb "gopkg.in/tomb.v2"

	"github.com/saiputravu/matchingengine/internal/book"
	"github.com/saiputravu/matchingengine/internal/order"
)

// Reporter receives trade and best-of-book updates as they happen, one
// call per book event. It is the generalized form of the teacher's
// Engine.Trade(taker, maker, quantity) hook: internal/feed implements it
// to broadcast over websocket, internal/metrics to update counters.
type Reporter interface {
	ReportTrade(instrumentID string, t order.Trade)
	ReportBest(instrumentID string, bestBid, bestAsk *order.Order)
}

// defaultInboundBuffer sizes the channel AddOrder submits onto. A full
// channel applies backpressure to producers rather than blocking forever;
// callers that need a different tradeoff should use NewWithBuffer.
const defaultInboundBuffer = 4096

// Engine owns order books keyed by instrument id, an inbound MPSC queue,
// a processed-order log, and the background worker that drains it. The
// zero value is not usable; construct with New.
type Engine struct {
	mu    sync.RWMutex
	books map[string]*book.OrderBook

	inbound chan *order.Order

	processedMu sync.Mutex
	processed   []*order.Order

	ids order.IDAllocator

	reporter Reporter

	t *tomb.Tomb
}

// SetReporter wires r to receive trade and best-of-book updates from every
// book, present and future. Call it before the first order for an
// instrument arrives if every event matters; books created afterward pick
// it up automatically, but any book already created before SetReporter is
// called will not retroactively report its current state.
func (e *Engine) SetReporter(r Reporter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reporter = r
	for id, b := range e.books {
		e.wireReporter(id, b)
	}
}

func (e *Engine) wireReporter(instrumentID string, b *book.OrderBook) {
	if e.reporter == nil {
		return
	}
	b.OnTrade(func(t order.Trade) { e.reporter.ReportTrade(instrumentID, t) })
	b.OnBestChange(func(bestBid, bestAsk *order.Order) { e.reporter.ReportBest(instrumentID, bestBid, bestAsk) })
}

// New constructs an Engine with no books; each is created lazily on first
// sight of its instrument id.
func New() *Engine {
	return NewWithBuffer(defaultInboundBuffer)
}

// NewWithBuffer is New with an explicit inbound channel capacity.
func NewWithBuffer(buffer int) *Engine {
	return &Engine{
		books:   make(map[string]*book.OrderBook),
		inbound: make(chan *order.Order, buffer),
	}
}

// NewLimitOrder mints a Limit order for instrumentID, assigning its id
// from the engine's scoped counter.
func (e *Engine) NewLimitOrder(instrumentID string, dir order.Side, quantity uint64, price decimal.Decimal) *order.Order {
	return order.NewLimit(e.ids.Next(), instrumentID, dir, quantity, price)
}

// NewMarketOrder mints a Market order for instrumentID. The only error
// path is an invalid direction.
func (e *Engine) NewMarketOrder(instrumentID string, dir order.Side, quantity uint64) (*order.Order, error) {
	return order.NewMarket(e.ids.Next(), instrumentID, dir, quantity)
}

// NewCancelOrder mints a Cancel targeting targetID on instrumentID/dir.
// Cancel order ids are supplied by the submitter (they denote the target),
// so no allocator id is consumed.
func (e *Engine) NewCancelOrder(instrumentID string, targetID uint64, dir order.Side) *order.Order {
	return order.NewCancel(instrumentID, targetID, dir)
}

// AddOrder validates o's direction and submits it for processing. It never
// blocks beyond admission to the inbound channel; callers transfer
// exclusive ownership of o to the engine and must not mutate it afterward.
// An invalid direction is rejected here rather than left for the worker to
// discover, since NewLimit (unlike NewMarket) performs no construction-time
// validation.
func (e *Engine) AddOrder(o *order.Order) error {
	if o.Direction != order.Buy && o.Direction != order.Sell {
		return order.ErrInvalidOrderDirection
	}
	e.inbound <- o
	return nil
}

// Match drains every order currently queued, routing each to its book and
// driving the match, then appending it to the processed-order log
// unconditionally (resting, cancelled, or filled alike — this is a "saw
// this order" log, not a "finished" log). An ErrInvalidOrderDirection from
// a single order is logged and skipped rather than aborting the drain, per
// spec.md §7's recovery policy; only ErrInvariantViolation propagates.
// Used directly by synchronous callers and tests; Run calls it from the
// background worker.
func (e *Engine) Match() error {
	for {
		select {
		case o := <-e.inbound:
			if err := e.apply(o); err != nil {
				if errors.Is(err, order.ErrInvariantViolation) {
					return err
				}
				log.Error().Err(err).Uint64("order_id", o.ID).Str("instrument", o.InstrumentID).
					Msg("order rejected")
			}
		default:
			return nil
		}
	}
}

func (e *Engine) apply(o *order.Order) error {
	b := e.bookFor(o.InstrumentID)
	err := b.Apply(o)

	e.processedMu.Lock()
	e.processed = append(e.processed, o)
	e.processedMu.Unlock()

	return err
}

// bookFor returns the book for instrumentID, lazily creating it under
// write lock on first sight.
func (e *Engine) bookFor(instrumentID string) *book.OrderBook {
	e.mu.RLock()
	b, ok := e.books[instrumentID]
	e.mu.RUnlock()
	if ok {
		return b
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if b, ok = e.books[instrumentID]; ok {
		return b
	}
	b = book.New(instrumentID)
	e.books[instrumentID] = b
	e.wireReporter(instrumentID, b)
	log.Info().Str("instrument", instrumentID).Msg("order book created")
	return b
}

// Book returns a read-only snapshot of the named instrument's book.
func (e *Engine) Book(instrumentID string) (book.Snapshot, bool) {
	e.mu.RLock()
	b, ok := e.books[instrumentID]
	e.mu.RUnlock()
	if !ok {
		return book.Snapshot{}, false
	}
	return b.Snapshot(), true
}

// Instruments lists every instrument id with a book.
func (e *Engine) Instruments() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.books))
	for id := range e.books {
		out = append(out, id)
	}
	return out
}

// ProcessedOrders returns a copy of the processed-order log.
func (e *Engine) ProcessedOrders() []*order.Order {
	e.processedMu.Lock()
	defer e.processedMu.Unlock()
	out := make([]*order.Order, len(e.processed))
	copy(out, e.processed)
	return out
}

// Run starts the background worker and blocks until it exits, supervising
// it with a tomb so the worker never busy-spins on an empty queue: it
// blocks on either a new order or the tomb dying. The worker exits when
// ctx is cancelled or Stop is called (both replace the reference's live
// flag without a busy-wait), or when an invariant violation aborts it, in
// which case Run returns that error.
func (e *Engine) Run(ctx context.Context) error {
	t, ctx := tomb.WithContext(ctx)
	e.t = t

	t.Go(func() error {
		log.Info().Msg("matching engine worker starting")
		for {
			select {
			case <-t.Dying():
				log.Info().Msg("matching engine worker stopping")
				return nil
			case o := <-e.inbound:
				if err := e.apply(o); err != nil {
					if errors.Is(err, order.ErrInvariantViolation) {
						log.Error().Err(err).Msg("invariant violation, aborting worker")
						return err
					}
					log.Error().Err(err).Uint64("order_id", o.ID).Str("instrument", o.InstrumentID).
						Msg("order rejected")
				}
				// Drain whatever else queued up behind o before going
				// back to waiting, so bursts are processed as a batch.
				// Match itself only returns an invariant violation; order
				// rejections are already logged-and-skipped above.
				if err := e.Match(); err != nil {
					log.Error().Err(err).Msg("invariant violation, aborting worker")
					return err
				}
			}
		}
	})

	return t.Wait()
}

// Stop requests the background worker started by Run to terminate after
// draining its current batch.
func (e *Engine) Stop() {
	if e.t != nil {
		e.t.Kill(nil)
	}
}
