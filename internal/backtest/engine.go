package backtest

import (
	"fmt"
	"sort"
	"time"

	"github.com/cryptoalpha/alpha-agent/internal/evaluation"
	"github.com/cryptoalpha/alpha-agent/internal/execution"
	"github.com/cryptoalpha/alpha-agent/internal/monitoring"
	"github.com/cryptoalpha/alpha-agent/internal/portfolio"
	"github.com/cryptoalpha/alpha-agent/internal/risk"
	"github.com/cryptoalpha/alpha-agent/internal/strategy"
	"github.com/cryptoalpha/alpha-agent/pkg/types"
)

// Config holds the engine parameters for one backtest run.
type Config struct {
	InitialBalance   float64
	WindowSize       int
	ParticipationCap float64
	Limits           risk.Limits
}

// Engine replays historical snapshots through the same risk manager and
// ledger the live agent uses. Everything is sequential and deterministic:
// the same window and configuration yield byte-identical equity curves.
type Engine struct {
	config Config
	source strategy.Strategy
	ledger *portfolio.Ledger
	risk   *risk.Manager
	driver *execution.BacktestDriver
}

// NewEngine creates a backtest engine with a fresh ledger
func NewEngine(config Config, source strategy.Strategy) *Engine {
	if config.WindowSize <= 0 {
		config.WindowSize = 100
	}
	ledger := portfolio.NewLedger(config.InitialBalance)
	return &Engine{
		config: config,
		source: source,
		ledger: ledger,
		risk:   risk.NewManager(config.Limits, ledger),
		driver: execution.NewBacktestDriver(ledger, config.ParticipationCap),
	}
}

// Ledger exposes the run's ledger for reporting after Run returns.
func (e *Engine) Ledger() *portfolio.Ledger {
	return e.ledger
}

// Run replays the per-symbol series in strict timestamp order. Orders
// decided at one tick fill at the symbol's next snapshot. Returns a
// performance report, or an error only for the fatal
// internal-consistency class.
func (e *Engine) Run(series map[string][]types.MarketSnapshot) (*evaluation.Report, error) {
	symbols := make([]string, 0, len(series))
	for symbol := range series {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	timeline := buildTimeline(series)
	cursor := make(map[string]int, len(series))
	pending := make(map[string][]*types.Order, len(series))

	for _, ts := range timeline {
		prices := make(map[string]float64, len(symbols))

		// Resolve orders queued at the previous tick against this tick's
		// snapshots, before any new decisions are made.
		for _, symbol := range symbols {
			snaps := series[symbol]
			idx := cursor[symbol]
			if idx >= len(snaps) || !snaps[idx].Timestamp.Equal(ts) {
				continue
			}
			prices[symbol] = snaps[idx].Price

			for _, order := range pending[symbol] {
				if err := e.driver.Execute(order, snaps[idx]); err != nil {
					return nil, fmt.Errorf("executing %s order for %s: %w", order.Side, symbol, err)
				}
			}
			pending[symbol] = nil
		}

		if err := e.ledger.MarkToMarket(ts, prices); err != nil {
			return nil, err
		}

		// Evaluate signals on the trailing window and queue the resulting
		// orders for the next tick.
		for _, symbol := range symbols {
			snaps := series[symbol]
			idx := cursor[symbol]
			if idx >= len(snaps) || !snaps[idx].Timestamp.Equal(ts) {
				continue
			}
			cursor[symbol] = idx + 1

			window := trailingWindow(snaps, idx, e.config.WindowSize)
			sig, err := e.source.Evaluate(window)
			if err != nil {
				// Data-quality problems degrade to flat, never fatal.
				sig = strategy.Flat(symbol, ts, e.source.GetName(), err.Error())
			}
			monitoring.RecordSignal(symbol, sig.Direction.String())

			order, _ := e.risk.Evaluate(sig, snaps[idx].Price, ts)
			if order != nil {
				pending[symbol] = append(pending[symbol], order)
			}
		}
	}

	return evaluation.Evaluate(e.ledger), nil
}

// buildTimeline merges the per-symbol series into one sorted, de-duplicated
// sequence of timestamps.
func buildTimeline(series map[string][]types.MarketSnapshot) []time.Time {
	seen := make(map[int64]time.Time)
	for _, snaps := range series {
		for _, s := range snaps {
			seen[s.Timestamp.UnixNano()] = s.Timestamp
		}
	}

	timeline := make([]time.Time, 0, len(seen))
	for _, ts := range seen {
		timeline = append(timeline, ts)
	}
	sort.Slice(timeline, func(i, j int) bool { return timeline[i].Before(timeline[j]) })
	return timeline
}

// trailingWindow returns up to windowSize snapshots ending at index idx.
func trailingWindow(snaps []types.MarketSnapshot, idx, windowSize int) []types.MarketSnapshot {
	start := idx + 1 - windowSize
	if start < 0 {
		start = 0
	}
	return snaps[start : idx+1]
}
