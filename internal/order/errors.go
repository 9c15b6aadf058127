package order

import "errors"

var (
	// ErrInvalidOrderDirection is returned by Market construction and by
	// OrderBook.Apply when an order's direction is neither Buy nor Sell.
	// Validation errors; the caller is expected to recover from them.
	ErrInvalidOrderDirection = errors.New("invalid order direction")

	// ErrInvariantViolation is returned by UpdateOnTrade when a trade would
	// over-fill an order or carries a non-positive quantity. Fatal: it
	// indicates a bug in the match loop and should abort the current batch.
	ErrInvariantViolation = errors.New("order invariant violation")

	// ErrInvalidOrderType is returned by OrderBook.Apply for Amend orders,
	// which this engine does not implement (model an amend as cancel+new).
	ErrInvalidOrderType = errors.New("invalid order type")
)
