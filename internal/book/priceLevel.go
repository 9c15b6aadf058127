package book

import (
	"github.com/shopspring/decimal"
	"github.com/saiputravu/matchingengine/internal/order"
)

// priceLevel holds every resting order at one price, in FIFO arrival
// order. Since the owning OrderBook is driven by a single worker, the
// order in which orders are appended to this slice already is arrival
// order, giving time priority for free.
type priceLevel struct {
	price  decimal.Decimal
	orders []*order.Order
}
