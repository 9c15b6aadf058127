package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Trade is an immutable execution record produced only by the match loop
// in package book. Quantity is always positive.
type Trade struct {
	ID        uuid.UUID
	Timestamp time.Time
	Price     decimal.Decimal
	Quantity  uint64
}

// NewTrade stamps a trade with a fresh id and the current time.
func NewTrade(price decimal.Decimal, quantity uint64) Trade {
	return Trade{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		Price:     price,
		Quantity:  quantity,
	}
}

func (t Trade) String() string {
	return fmt.Sprintf("Trade{ID:%s Price:%s Qty:%d Time:%s}", t.ID, t.Price, t.Quantity, t.Timestamp.Format(time.RFC3339Nano))
}
