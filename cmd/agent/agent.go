package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/cryptoalpha/alpha-agent/internal/config"
	"github.com/cryptoalpha/alpha-agent/internal/exchange"
	"github.com/cryptoalpha/alpha-agent/internal/execution"
	"github.com/cryptoalpha/alpha-agent/internal/logger"
	"github.com/cryptoalpha/alpha-agent/internal/monitoring"
	"github.com/cryptoalpha/alpha-agent/internal/notifications"
	"github.com/cryptoalpha/alpha-agent/internal/portfolio"
	"github.com/cryptoalpha/alpha-agent/internal/risk"
	"github.com/cryptoalpha/alpha-agent/internal/strategy"
	"github.com/cryptoalpha/alpha-agent/pkg/types"
)

// Agent drives the live decision cycle: fetch snapshots, evaluate the
// composite signal, pass it through the risk manager, and hand approved
// orders to the execution driver.
type Agent struct {
	config        *config.Config
	exchange      exchange.Exchange
	strategy      strategy.Strategy
	ledger        *portfolio.Ledger
	riskManager   *risk.Manager
	driver        *execution.LiveDriver
	healthChecker *monitoring.HealthChecker
	fileLogger    *logger.Logger
	notifier      notifications.Notifier
	stopChan      chan struct{}
}

// NewAgent wires the live components around one shared ledger.
func NewAgent(cfg *config.Config, exch exchange.Exchange, strat strategy.Strategy, health *monitoring.HealthChecker, fileLog *logger.Logger, notifier notifications.Notifier) *Agent {
	ledger := portfolio.NewLedger(cfg.Trading.InitialBalance)
	return &Agent{
		config:        cfg,
		exchange:      exch,
		strategy:      strat,
		ledger:        ledger,
		riskManager:   risk.NewManager(cfg.Risk, ledger),
		driver:        execution.NewLiveDriver(exch, ledger, cfg.Retry),
		healthChecker: health,
		fileLogger:    fileLog,
		notifier:      notifier,
		stopChan:      make(chan struct{}),
	}
}

// Ledger exposes the agent's ledger for reporting.
func (a *Agent) Ledger() *portfolio.Ledger {
	return a.ledger
}

// Start connects to the exchange and launches the trading loop.
func (a *Agent) Start(ctx context.Context) error {
	log.Println("🚀 Starting trading agent...")

	if err := a.exchange.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to exchange: %w", err)
	}
	a.healthChecker.SetConnected(true)

	a.printStartupSummary()

	if err := a.notifier.SendAlert("info", "Trading agent started"); err != nil {
		log.Printf("Failed to send startup notification: %v", err)
	}

	go a.tradingLoop(ctx)

	log.Println("✅ Trading agent started")
	return nil
}

func (a *Agent) printStartupSummary() {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("🤖 AGENT CONFIGURATION")
	t.AppendRows([]table.Row{
		{"Exchange", a.exchange.GetName()},
		{"Symbols", strings.Join(a.config.Trading.Symbols, ", ")},
		{"Interval", a.config.Trading.Interval},
		{"Cycle", a.config.Trading.CycleInterval.String()},
		{"Initial Balance", fmt.Sprintf("$%.2f", a.config.Trading.InitialBalance)},
		{"Max Position Size", fmt.Sprintf("%.4f", a.config.Risk.MaxPositionSize)},
		{"Max Drawdown", fmt.Sprintf("%.0f%%", a.config.Risk.MaxDrawdownFraction*100)},
		{"Strategy", a.strategy.GetName()},
	})
	t.Render()
}

func (a *Agent) tradingLoop(ctx context.Context) {
	ticker := time.NewTicker(a.config.Trading.CycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Trading loop stopped")
			return
		case <-a.stopChan:
			log.Println("Trading loop stopped")
			return
		case <-ticker.C:
			if err := a.executeCycle(ctx); err != nil {
				if portfolio.IsConsistencyViolation(err) {
					log.Printf("💥 FATAL: ledger consistency violated: %v", err)
					a.fileLogger.LogError("consistency", err)
					os.Exit(1)
				}
				log.Printf("Trading cycle error: %v", err)
				a.healthChecker.AddError(err.Error())
				monitoring.RecordError("cycle")
			}
		}
	}
}

// executeCycle runs one decision pass over all configured symbols, then
// marks the portfolio to market once.
func (a *Agent) executeCycle(ctx context.Context) error {
	now := time.Now().UTC()
	prices := make(map[string]float64, len(a.config.Trading.Symbols))

	for _, symbol := range a.config.Trading.Symbols {
		window, err := a.exchange.GetSnapshots(ctx, symbol, a.config.Trading.Interval, a.config.Trading.WindowSize)
		if err != nil {
			log.Printf("⚠️ Failed to fetch snapshots for %s: %v", symbol, err)
			monitoring.RecordError("market_data")
			continue
		}
		if len(window) > 0 {
			latest := window[len(window)-1]
			prices[symbol] = latest.Price
			monitoring.UpdatePrice(symbol, latest.Price)
		}

		sig, err := a.strategy.Evaluate(window)
		if err != nil {
			// Bad input degrades to flat; the cycle continues.
			sig = strategy.Flat(symbol, now, a.strategy.GetName(), err.Error())
		}
		monitoring.RecordSignal(symbol, sig.Direction.String())

		price, ok := prices[symbol]
		if !ok {
			continue
		}

		order, suppression := a.riskManager.Evaluate(sig, price, now)
		if suppression != nil {
			a.fileLogger.LogSuppression(symbol, string(suppression.Reason), suppression.Detail)
			continue
		}
		if order == nil {
			continue
		}

		if err := a.driver.Execute(ctx, order); err != nil {
			if portfolio.IsConsistencyViolation(err) {
				return err
			}
			log.Printf("⚠️ Execution error for %s: %v", symbol, err)
			continue
		}

		a.fileLogger.LogOrderResolved(order, nil)
		if order.Status == types.OrderFilled {
			a.healthChecker.UpdateLastTrade(now)
			message := fmt.Sprintf("%s %s %.6f @ ~$%.2f", order.Side, order.Symbol, order.Quantity, order.RequestedPrice)
			if err := a.notifier.SendAlert("success", message); err != nil {
				log.Printf("Failed to send trade notification: %v", err)
			}
		}
	}

	if len(prices) > 0 {
		if err := a.ledger.MarkToMarket(now, prices); err != nil {
			return err
		}
	}

	equity := a.ledger.Equity()
	monitoring.UpdatePortfolio(equity, a.ledger.Drawdown())
	a.healthChecker.UpdateCycle(equity)
	a.fileLogger.LogPortfolioStatus(equity, a.ledger.Cash(), a.ledger.Drawdown(), len(a.ledger.Positions()))

	return nil
}

// Shutdown stops the loop and disconnects from the exchange.
func (a *Agent) Shutdown(ctx context.Context) error {
	log.Println("🛑 Shutting down trading agent...")

	close(a.stopChan)

	if err := a.exchange.Disconnect(); err != nil {
		log.Printf("Error disconnecting from exchange: %v", err)
	}
	a.healthChecker.SetConnected(false)

	if err := a.notifier.SendAlert("info", "Trading agent stopped"); err != nil {
		log.Printf("Failed to send shutdown notification: %v", err)
	}

	log.Println("Trading agent shutdown complete")
	return nil
}
