package book_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiputravu/matchingengine/internal/book"
	"github.com/saiputravu/matchingengine/internal/order"
)

// TestConservation checks P1: every unit of quantity submitted is
// accounted for as either traded twice over (once per side), resting, or
// cancelled-unfilled.
func TestConservation(t *testing.T) {
	b := book.New("AAPL")

	submitted := []*order.Order{
		limit(1, order.Sell, 100, 10),
		limit(2, order.Buy, 100, 11),
		limit(3, order.Sell, 70, 8),
		limit(4, order.Buy, 30, 12),
		limit(5, order.Sell, 200, 20),
	}
	for _, o := range submitted {
		require.NoError(t, b.Apply(o))
	}

	var totalQty, tradedQty, restingQty, cancelledUnfilledQty uint64
	for _, o := range submitted {
		totalQty += o.Quantity
	}

	snap := b.Snapshot()
	for _, tr := range snap.Trades {
		tradedQty += tr.Quantity
	}
	for _, o := range snap.Bids {
		restingQty += o.Unfilled
	}
	for _, o := range snap.Asks {
		restingQty += o.Unfilled
	}
	if snap.BestBid != nil {
		restingQty += snap.BestBid.Unfilled
	}
	if snap.BestAsk != nil {
		restingQty += snap.BestAsk.Unfilled
	}
	for _, o := range snap.CompleteOrders {
		if o.Status == order.Cancelled {
			cancelledUnfilledQty += o.Unfilled
		}
	}

	assert.Equal(t, totalQty, tradedQty*2+restingQty+cancelledUnfilledQty)
}

// TestStatusMonotonicity checks P5: status only ever moves Live -> Filled
// or Live -> Cancelled, never back to Live, across a sequence of trades.
func TestStatusMonotonicity(t *testing.T) {
	b := book.New("AAPL")

	require.NoError(t, b.Apply(limit(1, order.Sell, 100, 10)))
	require.NoError(t, b.Apply(limit(2, order.Buy, 40, 10)))

	snap := b.Snapshot()
	require.NotNil(t, snap.BestAsk)
	assert.Equal(t, order.Live, snap.BestAsk.Status)
	assert.Equal(t, uint64(60), snap.BestAsk.Unfilled)

	require.NoError(t, b.Apply(limit(3, order.Buy, 60, 10)))
	snap = b.Snapshot()
	require.Len(t, snap.CompleteOrders, 3)
	for _, o := range snap.CompleteOrders {
		assert.NotEqual(t, order.Live, o.Status)
	}
}

// TestNonCrossAtRest checks P2: once attemptMatch settles false with both
// tops present, they must not cross.
func TestNonCrossAtRest(t *testing.T) {
	b := book.New("AAPL")
	require.NoError(t, b.Apply(limit(1, order.Buy, 100, 9)))
	require.NoError(t, b.Apply(limit(2, order.Sell, 100, 11)))

	snap := b.Snapshot()
	assert.False(t, snap.AttemptMatch)
	require.NotNil(t, snap.BestBid)
	require.NotNil(t, snap.BestAsk)
	assert.True(t, snap.BestBid.Price.LessThan(snap.BestAsk.Price))
}
