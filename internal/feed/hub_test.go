package feed_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiputravu/matchingengine/internal/feed"
	"github.com/saiputravu/matchingengine/internal/order"
)

func TestHub_BroadcastsTradeToConnectedClient(t *testing.T) {
	hub := feed.NewHub()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the server a moment to register the client before broadcasting.
	time.Sleep(20 * time.Millisecond)

	trade := order.NewTrade(decimal.NewFromInt(100), 50)
	hub.ReportTrade("AAPL", trade)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg feed.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "trade", msg.Type)
	assert.Equal(t, "AAPL", msg.InstrumentID)
	require.NotNil(t, msg.Trade)
	assert.Equal(t, uint64(50), msg.Trade.Quantity)
}
