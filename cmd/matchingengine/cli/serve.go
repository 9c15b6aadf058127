package cli

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/saiputravu/matchingengine/internal/engine"
	"github.com/saiputravu/matchingengine/internal/feed"
	"github.com/saiputravu/matchingengine/internal/metrics"
	"github.com/saiputravu/matchingengine/internal/order"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the matching engine with a websocket feed and metrics endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":9001", "address for the websocket feed and /metrics endpoint")
	return cmd
}

func runServe(cmd *cobra.Command, addr string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	e := engine.New()

	hub := feed.NewHub()
	reg := prometheus.NewRegistry()
	collector := metrics.New(reg)
	e.SetReporter(fanoutReporter{hub, collector})

	mux := http.NewServeMux()
	mux.Handle("/feed", hub)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Info().Str("addr", addr).Msg("serving websocket feed and metrics")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server failed")
		}
	}()

	go func() {
		if err := e.Run(ctx); err != nil {
			log.Error().Err(err).Msg("matching engine worker stopped with error")
		}
	}()

	<-ctx.Done()
	return server.Shutdown(context.Background())
}

// fanoutReporter composes the websocket feed and the metrics collector
// behind the single Reporter the engine dispatches to.
type fanoutReporter struct {
	hub       *feed.Hub
	collector *metrics.Collector
}

func (f fanoutReporter) ReportTrade(instrumentID string, t order.Trade) {
	f.hub.ReportTrade(instrumentID, t)
	f.collector.ReportTrade(instrumentID, t)
}

func (f fanoutReporter) ReportBest(instrumentID string, bestBid, bestAsk *order.Order) {
	f.hub.ReportBest(instrumentID, bestBid, bestAsk)
	f.collector.ReportBest(instrumentID, bestBid, bestAsk)
}
