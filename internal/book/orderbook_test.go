package book_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiputravu/matchingengine/internal/book"
	"github.com/saiputravu/matchingengine/internal/order"
)

func price(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func limit(id uint64, dir order.Side, qty uint64, p int64) *order.Order {
	return order.NewLimit(id, "AAPL", dir, qty, price(p))
}

func market(t *testing.T, id uint64, dir order.Side, qty uint64) *order.Order {
	t.Helper()
	o, err := order.NewMarket(id, "AAPL", dir, qty)
	require.NoError(t, err)
	return o
}

// --- S1: full cross, alternating arrival ------------------------------------

func TestScenario_FullCrossAlternatingArrival(t *testing.T) {
	b := book.New("AAPL")

	for i := uint64(0); i < 10; i++ {
		var dir order.Side
		var p int64
		if i%2 == 0 {
			dir = order.Sell
			p = 10 - int64(i)
		} else {
			dir = order.Buy
			p = 10 + int64(i)
		}
		require.NoError(t, b.Apply(limit(i+1, dir, 100, p)))
	}

	snap := b.Snapshot()
	assert.Len(t, snap.Trades, 5)
	assert.Len(t, snap.CompleteOrders, 10)
	assert.Empty(t, snap.Bids)
	assert.Empty(t, snap.Asks)
	assert.Nil(t, snap.BestBid)
	assert.Nil(t, snap.BestAsk)
	assert.False(t, snap.AttemptMatch)
}

// --- S2: no cross ------------------------------------------------------------

func TestScenario_NoCross(t *testing.T) {
	b := book.New("AAPL")

	for i := uint64(0); i < 10; i++ {
		var dir order.Side
		var p int64
		if i%2 == 0 {
			dir = order.Sell
			p = 10 + int64(i)
		} else {
			dir = order.Buy
			p = 10 - int64(i)
		}
		require.NoError(t, b.Apply(limit(i+1, dir, 100, p)))
	}

	snap := b.Snapshot()
	assert.Empty(t, snap.Trades)
	assert.Len(t, snap.Bids, 4)
	assert.Len(t, snap.Asks, 4)
	require.NotNil(t, snap.BestBid)
	require.NotNil(t, snap.BestAsk)
	assert.True(t, snap.BestBid.Price.LessThan(snap.BestAsk.Price))
}

// --- S3: partial fills, more asks --------------------------------------------

func TestScenario_PartialFillsMoreAsks(t *testing.T) {
	b := book.New("AAPL")

	for i := uint64(0); i < 10; i++ {
		var dir order.Side
		var p int64
		if i%2 == 0 {
			dir = order.Sell
			p = 10 - int64(i)
		} else {
			dir = order.Buy
			p = 10 + int64(i)
		}
		qty := uint64(100 - 10*i)
		require.NoError(t, b.Apply(limit(i+1, dir, qty, p)))
	}

	snap := b.Snapshot()
	assert.Greater(t, len(snap.Trades), 5)
	assert.Less(t, len(snap.CompleteOrders), 10)
	assert.True(t, len(snap.Bids) == 0 || len(snap.Asks) == 0 || snap.BestBid == nil || snap.BestAsk == nil,
		"at least one side should be fully drained")
}

// --- S4: market sweep ---------------------------------------------------------

func TestScenario_MarketSweep(t *testing.T) {
	b := book.New("AAPL")

	qtys := []uint64{100, 90, 80, 70, 60}
	prices := []int64{10, 11, 12, 13, 14}
	for i := range qtys {
		require.NoError(t, b.Apply(limit(uint64(i+1), order.Buy, qtys[i], prices[i])))
	}

	sweep := market(t, 100, order.Sell, 400)
	require.NoError(t, b.Apply(sweep))

	snap := b.Snapshot()
	assert.Len(t, snap.Trades, 5)
	assert.Empty(t, snap.Bids)
	assert.Nil(t, snap.BestBid)
	assert.Equal(t, order.Filled, sweep.Status)
	assert.Equal(t, uint64(0), sweep.Unfilled)

	filled := 0
	for _, o := range snap.CompleteOrders {
		if o.Type == order.Limit {
			assert.Equal(t, order.Filled, o.Status)
			filled++
		}
	}
	assert.Equal(t, 5, filled)
}

// --- S6: cancel top-of-book ----------------------------------------------------

func TestScenario_CancelTopOfBook(t *testing.T) {
	b := book.New("AAPL")

	resting := limit(1, order.Buy, 100, 10)
	require.NoError(t, b.Apply(resting))

	cancel := order.NewCancel("AAPL", resting.ID, order.Buy)
	require.NoError(t, b.Apply(cancel))

	snap := b.Snapshot()
	assert.Nil(t, snap.BestBid)
	assert.Len(t, snap.CompleteOrders, 1)
	assert.Equal(t, order.Cancelled, snap.CompleteOrders[0].Status)
	assert.True(t, cancel.CancelSuccess)
	assert.Empty(t, snap.Trades)
}

// --- Cancel edge cases (P7) -----------------------------------------------------

func TestCancel_DeepRestingOrderDoesNotSetAttemptMatch(t *testing.T) {
	b := book.New("AAPL")

	require.NoError(t, b.Apply(limit(1, order.Buy, 100, 10))) // becomes top
	deep := limit(2, order.Buy, 50, 9)
	require.NoError(t, b.Apply(deep)) // rests behind top, container

	cancel := order.NewCancel("AAPL", deep.ID, order.Buy)
	require.NoError(t, b.Apply(cancel))

	assert.True(t, cancel.CancelSuccess)
	snap := b.Snapshot()
	assert.False(t, snap.AttemptMatch)
	assert.Empty(t, snap.Bids)
	require.NotNil(t, snap.BestBid)
	assert.Equal(t, uint64(1), snap.BestBid.ID)
}

func TestCancel_UnknownTargetIsNoOp(t *testing.T) {
	b := book.New("AAPL")
	require.NoError(t, b.Apply(limit(1, order.Buy, 100, 10)))

	cancel := order.NewCancel("AAPL", 999, order.Buy)
	require.NoError(t, b.Apply(cancel))

	assert.False(t, cancel.CancelSuccess)
}

func TestCancel_WrongSideIsNoOp(t *testing.T) {
	b := book.New("AAPL")
	resting := limit(1, order.Buy, 100, 10)
	require.NoError(t, b.Apply(resting))

	// Cancel searches only the named side; asking to cancel a bid on the
	// ask side must not find it.
	cancel := order.NewCancel("AAPL", resting.ID, order.Sell)
	require.NoError(t, b.Apply(cancel))

	assert.False(t, cancel.CancelSuccess)
	snap := b.Snapshot()
	assert.NotNil(t, snap.BestBid)
}

func TestApply_InvalidDirectionRejected(t *testing.T) {
	b := book.New("AAPL")
	bad := &order.Order{InstrumentID: "AAPL", ID: 1, Type: order.Limit, Direction: order.Invalid, Quantity: 1, Unfilled: 1, Price: price(10)}

	err := b.Apply(bad)
	assert.ErrorIs(t, err, order.ErrInvalidOrderDirection)
}

func TestApply_AmendRejected(t *testing.T) {
	b := book.New("AAPL")
	amend := &order.Order{InstrumentID: "AAPL", ID: 1, Type: order.Amend}

	err := b.Apply(amend)
	assert.ErrorIs(t, err, order.ErrInvalidOrderType)
}

// --- P4/P6: time priority at equal price, top-of-side consistency ---------------

func TestPriceTimePriority_EqualPriceArrivalOrderPreserved(t *testing.T) {
	b := book.New("AAPL")

	require.NoError(t, b.Apply(limit(1, order.Buy, 10, 10))) // top
	require.NoError(t, b.Apply(limit(2, order.Buy, 10, 10))) // same price, rests behind
	require.NoError(t, b.Apply(limit(3, order.Buy, 10, 10))) // same price, rests further behind

	snap := b.Snapshot()
	require.NotNil(t, snap.BestBid)
	assert.Equal(t, uint64(1), snap.BestBid.ID)
	require.Len(t, snap.Bids, 2)
	assert.Equal(t, uint64(2), snap.Bids[0].ID)
	assert.Equal(t, uint64(3), snap.Bids[1].ID)
}

func TestPricePriority_HigherBidDemotesLowerToContainer(t *testing.T) {
	b := book.New("AAPL")

	require.NoError(t, b.Apply(limit(1, order.Buy, 10, 9)))
	require.NoError(t, b.Apply(limit(2, order.Buy, 10, 10))) // more aggressive, becomes new top

	snap := b.Snapshot()
	require.NotNil(t, snap.BestBid)
	assert.Equal(t, uint64(2), snap.BestBid.ID)
	require.Len(t, snap.Bids, 1)
	assert.Equal(t, uint64(1), snap.Bids[0].ID)
}
