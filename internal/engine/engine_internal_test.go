package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiputravu/matchingengine/internal/order"
)

// TestMatch_InvalidDirectionIsLoggedAndSkipped is a white-box regression
// test for the worker's error-recovery policy: it bypasses AddOrder's
// validation entirely by pushing straight onto the inbound channel, the
// same position an order would be in if it reached the worker by any path
// other than AddOrder. ErrInvalidOrderDirection must not abort the drain;
// only ErrInvariantViolation does (spec.md §7).
func TestMatch_InvalidDirectionIsLoggedAndSkipped(t *testing.T) {
	e := New()

	bad := order.NewLimit(1, "AAPL", order.Invalid, 10, decimal.NewFromInt(10))
	e.inbound <- bad

	good := e.NewLimitOrder("MSFT", order.Buy, 10, decimal.NewFromInt(10))
	e.inbound <- good

	require.NoError(t, e.Match())

	snap, ok := e.Book("MSFT")
	require.True(t, ok)
	require.NotNil(t, snap.BestBid)
	assert.Equal(t, good.ID, snap.BestBid.ID)

	// ProcessedOrders is a "saw this order" log, not a "finished" log (§9):
	// the rejected order is still recorded, just without resting or trading.
	processed := e.ProcessedOrders()
	require.Len(t, processed, 2)
	assert.Same(t, bad, processed[0])
	assert.Same(t, good, processed[1])
}
