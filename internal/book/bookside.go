package book

import (
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"github.com/saiputravu/matchingengine/internal/order"
)

// levels is the price-ordered backing container for one side of a book:
// bids sorted descending by price, asks ascending. It never holds the
// side's best-of-side order (see OrderBook.bestBid/bestAsk); it only holds
// what has been demoted or never promoted.
type levels = btree.BTreeG[*priceLevel]

// BookSide is the priority-sorted container of resting orders on one side
// of an OrderBook, per spec: primary key price (descending for bids,
// ascending for asks), secondary key arrival (ascending, FIFO).
type BookSide struct {
	tree *levels
	byID map[uint64]*priceLevel // orderID -> the level it currently sits in
}

// NewBookSide builds an empty side. descending selects bid ordering
// (highest price first); ascending (descending=false) selects ask
// ordering.
func NewBookSide(descending bool) *BookSide {
	less := func(a, b *priceLevel) bool {
		if descending {
			return a.price.GreaterThan(b.price)
		}
		return a.price.LessThan(b.price)
	}
	return &BookSide{
		tree: btree.NewBTreeG(less),
		byID: make(map[uint64]*priceLevel),
	}
}

// Insert files o into its price/time position in the container. Called
// only for orders being demoted out of best-of-side or placed directly
// because they were not the most aggressive order seen.
func (s *BookSide) Insert(o *order.Order) {
	key := &priceLevel{price: o.Price}
	level, ok := s.tree.GetMut(key)
	if !ok {
		level = &priceLevel{price: o.Price, orders: []*order.Order{o}}
		s.tree.Set(level)
	} else {
		level.orders = append(level.orders, o)
	}
	s.byID[o.ID] = level
}

// PopTop removes and returns the earliest-arrival order at the best
// (lowest-sorted) price level, for promotion into best-of-side. Returns
// false if the side is empty.
func (s *BookSide) PopTop() (*order.Order, bool) {
	level, ok := s.tree.MinMut()
	if !ok {
		return nil, false
	}
	o := level.orders[0]
	if len(level.orders) == 1 {
		s.tree.Delete(level)
	} else {
		level.orders = level.orders[1:]
	}
	delete(s.byID, o.ID)
	return o, true
}

// RemoveByID splices a specific resting order out of the container,
// wherever it sits, for Cancel targeting a deep (non-top) order. Returns
// false if no live order with that id is filed in this side's container.
func (s *BookSide) RemoveByID(id uint64) (*order.Order, bool) {
	level, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	for i, o := range level.orders {
		if o.ID == id {
			level.orders = append(level.orders[:i], level.orders[i+1:]...)
			delete(s.byID, id)
			if len(level.orders) == 0 {
				s.tree.Delete(level)
			}
			return o, true
		}
	}
	return nil, false
}

// Len returns the number of resting orders in the container (excluding
// best-of-side).
func (s *BookSide) Len() int {
	n := 0
	s.tree.Scan(func(l *priceLevel) bool {
		n += len(l.orders)
		return true
	})
	return n
}

// Orders returns every resting order in the container, in priority order
// (price, then arrival), for snapshotting. It never includes best-of-side.
func (s *BookSide) Orders() []*order.Order {
	var out []*order.Order
	s.tree.Scan(func(l *priceLevel) bool {
		out = append(out, l.orders...)
		return true
	})
	return out
}

// bestPrice reports the price of the top level in the container. Nothing in
// the module calls it.
func (s *BookSide) bestPrice() (decimal.Decimal, bool) {
	level, ok := s.tree.Min()
	if !ok {
		return decimal.Zero, false
	}
	return level.price, true
}
