// Package book implements the per-instrument limit order book: two
// price-time priority BookSides, the best-of-side handles kept outside
// them, placement, cancellation, and the crossing/matching loop.
package book

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/saiputravu/matchingengine/internal/order"
)

// OrderBook is the limit order book for a single instrument. It is driven
// by exactly one goroutine (the owning engine's worker); OrderBook itself
// only takes a lock around the fields a concurrent Snapshot read needs to
// see consistently.
type OrderBook struct {
	InstrumentID string

	mu sync.Mutex

	bids *BookSide
	asks *BookSide

	bestBid *order.Order
	bestAsk *order.Order

	// attemptMatch is set whenever an event may have created a cross;
	// Match reads it and clears it once no further progress is possible.
	attemptMatch bool

	trades         []order.Trade
	completeOrders []*order.Order

	arrivalSeq uint64

	// onTrade and onBestChange are optional hooks for external observers
	// (the websocket feed, metrics) — the generalized form of the
	// teacher's engine.Trade(taker, maker, quantity) callback. Nil by
	// default; OrderBook's own invariants never depend on them.
	onTrade      func(order.Trade)
	onBestChange func(bestBid, bestAsk *order.Order)
}

// OnTrade registers fn to be called synchronously, within the match loop,
// for every trade this book executes.
func (b *OrderBook) OnTrade(fn func(order.Trade)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onTrade = fn
}

// OnBestChange registers fn to be called once per Apply with the book's
// current best bid/ask, for feeds that only care about top-of-book.
func (b *OrderBook) OnBestChange(fn func(bestBid, bestAsk *order.Order)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onBestChange = fn
}

// New creates an empty book for instrumentID. Books are created lazily by
// the owning engine on first sight of an instrument and live for the
// process lifetime.
func New(instrumentID string) *OrderBook {
	return &OrderBook{
		InstrumentID: instrumentID,
		bids:         NewBookSide(true),
		asks:         NewBookSide(false),
	}
}

// Apply performs placement-or-cancel for o and then drives the match loop
// to completion. It is the single entry point a MatchingEngine calls for
// every dequeued order.
func (b *OrderBook) Apply(o *order.Order) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	switch o.Type {
	case order.Cancel:
		if o.Direction != order.Buy && o.Direction != order.Sell {
			return order.ErrInvalidOrderDirection
		}
		b.cancel(o)
		err = b.match()
	case order.Limit, order.Market:
		if o.Direction != order.Buy && o.Direction != order.Sell {
			return order.ErrInvalidOrderDirection
		}
		b.place(o)
		err = b.match()
	default:
		return order.ErrInvalidOrderType
	}

	if b.onBestChange != nil {
		b.onBestChange(b.bestBid, b.bestAsk)
	}
	return err
}

// place runs the placement algorithm of spec.md §4.3: Limit and Market
// orders are handled identically, since Market orders only differ in
// carrying a dominating sentinel price.
func (b *OrderBook) place(o *order.Order) {
	var top **order.Order
	var side *BookSide
	switch o.Direction {
	case order.Buy:
		top, side = &b.bestBid, b.bids
	case order.Sell:
		top, side = &b.bestAsk, b.asks
	}

	b.arrivalSeq++
	o.Seq = b.arrivalSeq

	if *top == nil {
		*top = o
		b.attemptMatch = true
		return
	}

	if moreAggressive(o, *top) {
		demoted := *top
		side.Insert(demoted)
		*top = o
		b.attemptMatch = true
		return
	}

	side.Insert(o)
}

// moreAggressive reports whether o would trade ahead of top on the same
// side: a strictly higher bid, or a strictly lower ask.
func moreAggressive(o, top *order.Order) bool {
	if o.Direction == order.Buy {
		return o.Price.GreaterThan(top.Price)
	}
	return o.Price.LessThan(top.Price)
}

// cancel implements spec.md §4.2: only the named side of the book is
// searched, and an absent or non-live target is a silent no-op.
func (b *OrderBook) cancel(c *order.Order) {
	var top **order.Order
	var side *BookSide
	switch c.Direction {
	case order.Buy:
		top, side = &b.bestBid, b.bids
	case order.Sell:
		top, side = &b.bestAsk, b.asks
	}

	if target := *top; target != nil && target.ID == c.ID {
		if target.Status != order.Live {
			return
		}
		target.Status = order.Cancelled
		b.completeOrders = append(b.completeOrders, target)
		if next, ok := side.PopTop(); ok {
			*top = next
		} else {
			*top = nil
		}
		b.attemptMatch = true
		c.CancelSuccess = true
		return
	}

	if target, ok := side.RemoveByID(c.ID); ok {
		if target.Status != order.Live {
			return
		}
		target.Status = order.Cancelled
		b.completeOrders = append(b.completeOrders, target)
		c.CancelSuccess = true
	}
	// No matching live order anywhere on this side: no-op, CancelSuccess
	// stays false.
}

// match is the crossing loop of spec.md §4.4. It terminates because each
// non-break iteration either fills at least one side (strictly decreasing
// total unfilled top-of-book quantity) or clears attemptMatch and exits.
func (b *OrderBook) match() error {
	for b.attemptMatch && b.bestBid != nil && b.bestAsk != nil {
		b.attemptMatch = false

		if b.bestBid.Price.LessThan(b.bestAsk.Price) {
			break
		}

		execPrice := order.ExecutionPrice(b.bestBid, b.bestAsk)
		execQty := min(b.bestBid.Unfilled, b.bestAsk.Unfilled)
		t := order.NewTrade(execPrice, execQty)

		if err := b.bestBid.UpdateOnTrade(t); err != nil {
			return err
		}
		if err := b.bestAsk.UpdateOnTrade(t); err != nil {
			return err
		}
		b.trades = append(b.trades, t)

		log.Debug().
			Str("instrument", b.InstrumentID).
			Str("price", t.Price.String()).
			Uint64("qty", t.Quantity).
			Uint64("bid", b.bestBid.ID).
			Uint64("ask", b.bestAsk.ID).
			Msg("trade executed")

		if b.onTrade != nil {
			b.onTrade(t)
		}

		if b.bestBid.Status != order.Live {
			b.completeOrders = append(b.completeOrders, b.bestBid)
			if next, ok := b.bids.PopTop(); ok {
				b.bestBid = next
			} else {
				b.bestBid = nil
			}
			b.attemptMatch = true
		}
		if b.bestAsk.Status != order.Live {
			b.completeOrders = append(b.completeOrders, b.bestAsk)
			if next, ok := b.asks.PopTop(); ok {
				b.bestAsk = next
			} else {
				b.bestAsk = nil
			}
			b.attemptMatch = true
		}
	}
	b.attemptMatch = false
	return nil
}

// Snapshot is a read-only view of an OrderBook's observable state, safe to
// hand to callers outside the worker goroutine.
type Snapshot struct {
	InstrumentID   string
	Bids           []*order.Order
	Asks           []*order.Order
	BestBid        *order.Order
	BestAsk        *order.Order
	Trades         []order.Trade
	CompleteOrders []*order.Order
	AttemptMatch   bool
}

// Snapshot copies out the book's current observable state under lock.
func (b *OrderBook) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	trades := make([]order.Trade, len(b.trades))
	copy(trades, b.trades)
	complete := make([]*order.Order, len(b.completeOrders))
	copy(complete, b.completeOrders)

	return Snapshot{
		InstrumentID:   b.InstrumentID,
		Bids:           b.bids.Orders(),
		Asks:           b.asks.Orders(),
		BestBid:        b.bestBid,
		BestAsk:        b.bestAsk,
		Trades:         trades,
		CompleteOrders: complete,
		AttemptMatch:   b.attemptMatch,
	}
}
