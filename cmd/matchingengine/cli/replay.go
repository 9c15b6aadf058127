package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/saiputravu/matchingengine/internal/engine"
	"github.com/saiputravu/matchingengine/internal/order"
)

// replayRecord is one line of a replay file: a JSON object describing a
// single order to submit, in arrival order. Price and Quantity are strings
// so exact decimal literals survive the round trip.
type replayRecord struct {
	Type         string `json:"type"` // "limit", "market", or "cancel"
	InstrumentID string `json:"instrument"`
	Direction    string `json:"direction"` // "buy" or "sell"
	Quantity     string `json:"quantity,omitempty"`
	Price        string `json:"price,omitempty"`
	TargetID     uint64 `json:"target_id,omitempty"` // cancel only
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Feed a recorded file of orders through the matching engine and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, args[0])
		},
	}
	return cmd
}

func runReplay(cmd *cobra.Command, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening replay file: %w", err)
	}
	defer f.Close()

	e := engine.New()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}

		var rec replayRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}

		o, err := recordToOrder(e, rec)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if err := e.AddOrder(o); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading replay file: %w", err)
	}

	if err := e.Match(); err != nil {
		return fmt.Errorf("matching: %w", err)
	}

	return printSummary(cmd, e)
}

func recordToOrder(e *engine.Engine, rec replayRecord) (*order.Order, error) {
	dir, err := parseDirection(rec.Direction)
	if err != nil {
		return nil, err
	}

	switch rec.Type {
	case "limit":
		qty, err := parseQuantity(rec.Quantity)
		if err != nil {
			return nil, err
		}
		price, err := decimal.NewFromString(rec.Price)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q: %w", rec.Price, err)
		}
		return e.NewLimitOrder(rec.InstrumentID, dir, qty, price), nil
	case "market":
		qty, err := parseQuantity(rec.Quantity)
		if err != nil {
			return nil, err
		}
		return e.NewMarketOrder(rec.InstrumentID, dir, qty)
	case "cancel":
		return e.NewCancelOrder(rec.InstrumentID, rec.TargetID, dir), nil
	default:
		return nil, fmt.Errorf("unknown order type %q", rec.Type)
	}
}

func parseDirection(s string) (order.Side, error) {
	switch s {
	case "buy":
		return order.Buy, nil
	case "sell":
		return order.Sell, nil
	default:
		return order.Invalid, fmt.Errorf("unknown direction %q", s)
	}
}

func parseQuantity(s string) (uint64, error) {
	var qty uint64
	_, err := fmt.Sscanf(s, "%d", &qty)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	return qty, nil
}

func printSummary(cmd *cobra.Command, e *engine.Engine) error {
	out := cmd.OutOrStdout()
	processed := e.ProcessedOrders()
	fmt.Fprintf(out, "orders processed: %d\n", len(processed))

	for _, instrumentID := range e.Instruments() {
		snap, ok := e.Book(instrumentID)
		if !ok {
			continue
		}
		cancelled := 0
		for _, o := range snap.CompleteOrders {
			if o.Status == order.Cancelled {
				cancelled++
			}
		}
		fmt.Fprintf(out, "%s: %d trades, %d complete orders (%d cancelled), %d resting bids, %d resting asks\n",
			instrumentID, len(snap.Trades), len(snap.CompleteOrders), cancelled, len(snap.Bids), len(snap.Asks))
	}
	return nil
}
