// Package metrics exposes Prometheus counters and histograms for the
// matching engine, registered against a caller-supplied registry, in the
// way perp-dex wires prometheus/client_golang alongside its matching core.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/saiputravu/matchingengine/internal/order"
)

// Collector implements engine.Reporter, translating trade and best-of-book
// events into Prometheus observations.
type Collector struct {
	trades     *prometheus.CounterVec
	tradedQty  *prometheus.CounterVec
	bestBidGa  *prometheus.GaugeVec
	bestAskGa  *prometheus.GaugeVec
	matchAge   prometheus.Histogram
}

// New registers the matching engine's metrics against reg.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		trades: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "matchingengine_trades_total",
			Help: "Total number of trades executed, by instrument.",
		}, []string{"instrument"}),
		tradedQty: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "matchingengine_traded_quantity_total",
			Help: "Total quantity traded, by instrument.",
		}, []string{"instrument"}),
		bestBidGa: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "matchingengine_best_bid",
			Help: "Current best bid price, by instrument.",
		}, []string{"instrument"}),
		bestAskGa: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "matchingengine_best_ask",
			Help: "Current best ask price, by instrument.",
		}, []string{"instrument"}),
		matchAge: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "matchingengine_trade_latency_seconds",
			Help:    "Age of a trade's timestamp when observed by the collector.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ReportTrade implements engine.Reporter.
func (c *Collector) ReportTrade(instrumentID string, t order.Trade) {
	c.trades.WithLabelValues(instrumentID).Inc()
	c.tradedQty.WithLabelValues(instrumentID).Add(float64(t.Quantity))
	c.matchAge.Observe(time.Since(t.Timestamp).Seconds())
}

// ReportBest implements engine.Reporter.
func (c *Collector) ReportBest(instrumentID string, bestBid, bestAsk *order.Order) {
	if bestBid != nil {
		f, _ := bestBid.Price.Float64()
		c.bestBidGa.WithLabelValues(instrumentID).Set(f)
	}
	if bestAsk != nil {
		f, _ := bestAsk.Price.Float64()
		c.bestAskGa.WithLabelValues(instrumentID).Set(f)
	}
}
