// Package order defines the order and trade types carried through the
// matching engine: construction, fill bookkeeping, and the status
// lifecycle (Live -> Filled | Cancelled).
package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order. Invalid exists only so callers can
// exercise the direction-validation error path; it is never produced by
// the factories in package engine.
type Side int

const (
	Buy Side = iota
	Sell
	Invalid
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	default:
		return "Invalid"
	}
}

// Type distinguishes Limit, Market, and Cancel orders. Amend is reserved
// but unhandled: OrderBook.Apply rejects it with ErrInvalidOrderType.
type Type int

const (
	Limit Type = iota
	Market
	Cancel
	Amend
)

func (t Type) String() string {
	switch t {
	case Limit:
		return "Limit"
	case Market:
		return "Market"
	case Cancel:
		return "Cancel"
	default:
		return "Amend"
	}
}

// Status is the lifecycle state of an order. It only ever moves forward:
// Live -> Filled or Live -> Cancelled, never back.
type Status int

const (
	Live Status = iota
	Filled
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Live:
		return "Live"
	case Filled:
		return "Filled"
	default:
		return "Cancelled"
	}
}

// marketBuyPrice and marketSellPrice stand in for the +infinity / 0 prices
// a Market order carries so it dominates every resting Limit on the
// opposing side during placement and crossing comparisons. They are never
// used as an execution price directly: see ExecutionPrice.
var (
	marketBuyPrice  = decimal.New(1, 15)
	marketSellPrice = decimal.Zero
)

// Order is the single concrete type carrying Limit, Market, and Cancel
// orders alike, tagged by Type. Limit and Market orders rest on a book;
// Cancel orders never do and instead carry the id of the order to remove
// in ID.
type Order struct {
	InstrumentID string
	ID           uint64 // assigned by the engine for Limit/Market; the cancel target id for Cancel
	Direction    Side
	Type         Type
	Quantity     uint64
	Unfilled     uint64
	Price        decimal.Decimal
	IsMarket     bool
	Status       Status
	FillInfo     []Trade
	Seq          uint64 // arrival sequence within the book, assigned on placement
	Timestamp    time.Time

	// CancelSuccess reports whether a Cancel order actually removed its
	// target. It is meaningless on Limit/Market orders.
	CancelSuccess bool
}

// NewLimit builds a resting Limit order. id must come from a scoped
// allocator (see IDAllocator); construction itself never fails.
func NewLimit(id uint64, instrumentID string, dir Side, quantity uint64, price decimal.Decimal) *Order {
	return &Order{
		InstrumentID: instrumentID,
		ID:           id,
		Direction:    dir,
		Type:         Limit,
		Quantity:     quantity,
		Unfilled:     quantity,
		Price:        price,
		Status:       Live,
		Timestamp:    time.Now(),
	}
}

// NewMarket builds a Market order. Price is pinned to the dominating
// sentinel for dir; ErrInvalidOrderDirection is returned for anything but
// Buy/Sell, matching the reference implementation's construction-time check.
func NewMarket(id uint64, instrumentID string, dir Side, quantity uint64) (*Order, error) {
	var price decimal.Decimal
	switch dir {
	case Buy:
		price = marketBuyPrice
	case Sell:
		price = marketSellPrice
	default:
		return nil, ErrInvalidOrderDirection
	}
	return &Order{
		InstrumentID: instrumentID,
		ID:           id,
		Direction:    dir,
		Type:         Market,
		Quantity:     quantity,
		Unfilled:     quantity,
		Price:        price,
		IsMarket:     true,
		Status:       Live,
		Timestamp:    time.Now(),
	}, nil
}

// NewCancel builds a Cancel request targeting targetID on the named side.
// Cancels never rest on a book and carry no price.
func NewCancel(instrumentID string, targetID uint64, dir Side) *Order {
	return &Order{
		InstrumentID: instrumentID,
		ID:           targetID,
		Direction:    dir,
		Type:         Cancel,
		Timestamp:    time.Now(),
	}
}

// UpdateOnTrade applies trade to the order's fill state. It fails with
// ErrInvariantViolation if trade would over-fill the order or carries a
// non-positive quantity; both indicate a bug in the match loop, not a
// recoverable condition.
func (o *Order) UpdateOnTrade(t Trade) error {
	if t.Quantity == 0 {
		return fmt.Errorf("%w: trade quantity must be positive", ErrInvariantViolation)
	}
	if t.Quantity > o.Unfilled {
		return fmt.Errorf("%w: trade quantity %d exceeds unfilled %d on order %d", ErrInvariantViolation, t.Quantity, o.Unfilled, o.ID)
	}

	o.FillInfo = append(o.FillInfo, t)
	o.Unfilled -= t.Quantity
	if o.Unfilled == 0 {
		o.Status = Filled
	}
	return nil
}

// ExecutionPrice is the midpoint of two crossing tops, falling back to the
// limit side's price when the other side is a Market order (whose Price
// field is a dominance sentinel, not a real price). Market-vs-Market is
// left at zero: both sides are price-agnostic by construction, so there is
// no meaningful execution price to recover, and zero is a deterministic,
// documented choice rather than an arbitrary one (see DESIGN.md).
func ExecutionPrice(bid, ask *Order) decimal.Decimal {
	switch {
	case bid.IsMarket && ask.IsMarket:
		return decimal.Zero
	case bid.IsMarket:
		return ask.Price
	case ask.IsMarket:
		return bid.Price
	default:
		return bid.Price.Add(ask.Price).DivRound(decimal.NewFromInt(2), 8)
	}
}

func (o Order) String() string {
	return fmt.Sprintf(
		"Order{ID:%d Instrument:%s Dir:%s Type:%s Qty:%d Unfilled:%d Price:%s Status:%s}",
		o.ID, o.InstrumentID, o.Direction, o.Type, o.Quantity, o.Unfilled, o.Price, o.Status,
	)
}
