package order_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saiputravu/matchingengine/internal/order"
)

func TestIDAllocator_StartsAtOneAndIncrements(t *testing.T) {
	var a order.IDAllocator
	assert.Equal(t, uint64(1), a.Next())
	assert.Equal(t, uint64(2), a.Next())
	assert.Equal(t, uint64(3), a.Next())
}
