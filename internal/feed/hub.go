// Package feed broadcasts trade and best-of-book events over websocket to
// any number of connected readers, following the hub/client split perp-dex
// uses for its own market-data websocket API.
package feed

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/saiputravu/matchingengine/internal/order"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message is the wire shape broadcast to every connected client.
type Message struct {
	Type         string          `json:"type"` // "trade" or "best"
	InstrumentID string          `json:"instrument"`
	Trade        *order.Trade    `json:"trade,omitempty"`
	BestBid      *bestLevel      `json:"best_bid,omitempty"`
	BestAsk      *bestLevel      `json:"best_ask,omitempty"`
}

type bestLevel struct {
	Price    string `json:"price"`
	Quantity uint64 `json:"quantity"`
}

// Hub fans messages out to every registered client and implements
// engine.Reporter, so it can be wired with Engine.SetReporter directly.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// ReportTrade implements engine.Reporter.
func (h *Hub) ReportTrade(instrumentID string, t order.Trade) {
	h.broadcast(Message{Type: "trade", InstrumentID: instrumentID, Trade: &t})
}

// ReportBest implements engine.Reporter.
func (h *Hub) ReportBest(instrumentID string, bestBid, bestAsk *order.Order) {
	msg := Message{Type: "best", InstrumentID: instrumentID}
	if bestBid != nil {
		msg.BestBid = &bestLevel{Price: bestBid.Price.String(), Quantity: bestBid.Unfilled}
	}
	if bestAsk != nil {
		msg.BestAsk = &bestLevel{Price: bestAsk.Price.String(), Quantity: bestAsk.Unfilled}
	}
	h.broadcast(msg)
}

func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("feed: failed to marshal message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			log.Warn().Msg("feed: client send buffer full, dropping slow client")
			h.removeLocked(c)
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

// ServeHTTP upgrades the request to a websocket connection and registers it
// as a broadcast recipient. Connected clients are write-only: anything they
// send is discarded once read, since this feed has no subscription model.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("feed: websocket upgrade failed")
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBufferSize)}
	h.register(c)

	go c.writePump()
	go c.readPump()
}
