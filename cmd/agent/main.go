package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/cryptoalpha/alpha-agent/internal/backtest"
	"github.com/cryptoalpha/alpha-agent/internal/config"
	"github.com/cryptoalpha/alpha-agent/internal/exchange/bybit"
	"github.com/cryptoalpha/alpha-agent/internal/logger"
	"github.com/cryptoalpha/alpha-agent/internal/monitoring"
	"github.com/cryptoalpha/alpha-agent/internal/notifications"
	"github.com/cryptoalpha/alpha-agent/internal/strategy"
	"github.com/cryptoalpha/alpha-agent/pkg/data"
	"github.com/cryptoalpha/alpha-agent/pkg/reporting"
	"github.com/cryptoalpha/alpha-agent/pkg/types"
)

const dateLayout = "2006-01-02"

func main() {
	configFile := flag.String("config", "", "Path to JSON config file")
	dataDir := flag.String("data", "data", "Directory with per-symbol CSV files (backtest)")
	reportDir := flag.String("report", "results", "Directory for backtest reports")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	args := flag.Args()
	if len(args) > 0 && args[0] == "backtest" {
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "Usage: agent backtest <start_date> <end_date>  (dates as YYYY-MM-DD)")
			os.Exit(2)
		}
		runBacktest(cfg, *dataDir, *reportDir, args[1], args[2])
		return
	}

	runLive(cfg)
}

// buildStrategy assembles the weighted composite from the configured
// signal sources. Unknown names are rejected up front. Members are added
// in sorted name order so aggregation is reproducible across runs.
func buildStrategy(cfg *config.Config) (strategy.Strategy, error) {
	names := make([]string, 0, len(cfg.StrategyWeights))
	for name := range cfg.StrategyWeights {
		names = append(names, name)
	}
	sort.Strings(names)

	var members []strategy.WeightedStrategy
	for _, name := range names {
		weight := cfg.StrategyWeights[name]
		if weight == 0 {
			continue
		}
		var s strategy.Strategy
		switch name {
		case "momentum":
			s = strategy.NewMomentumStrategy()
		case "mean_reversion":
			s = strategy.NewMeanReversionStrategy()
		case "breakout":
			s = strategy.NewBreakoutStrategy()
		case "ml_score":
			s = strategy.NewMLScoreStrategy(strategy.ReturnScorer{})
		default:
			return nil, fmt.Errorf("unknown strategy %q in strategy_weights", name)
		}
		members = append(members, strategy.WeightedStrategy{Strategy: s, Weight: weight})
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("no strategies enabled")
	}
	return strategy.NewComposite(members...), nil
}

func runLive(cfg *config.Config) {
	log.Printf("Starting agent in %s mode", cfg.Environment)

	strat, err := buildStrategy(cfg)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	fileLog, err := logger.NewLogger("logs", "live")
	if err != nil {
		log.Fatalf("❌ Failed to open session log: %v", err)
	}
	defer fileLog.Close()

	exch := bybit.NewClient(bybit.Config{
		APIKey:    cfg.Exchange.APIKey,
		APISecret: cfg.Exchange.Secret,
		Category:  cfg.Exchange.Category,
		Testnet:   cfg.Exchange.Testnet,
		Demo:      cfg.Exchange.Demo,
	})

	var notifier notifications.Notifier = notifications.NoopNotifier{}
	if cfg.Notifications.TelegramToken != "" {
		notifier = notifications.NewTelegramNotifier(cfg.Notifications.TelegramToken, cfg.Notifications.TelegramChatID)
	} else {
		log.Println("Telegram notifications disabled (no token configured)")
	}

	healthChecker := monitoring.NewHealthChecker()
	agent := NewAgent(cfg, exch, strat, healthChecker, fileLog, notifier)

	go setupMonitoringServers(cfg, healthChecker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := agent.Start(ctx); err != nil {
			log.Printf("Agent error: %v", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		log.Println("Shutdown signal received")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := agent.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	reporter := reporting.NewDefaultConsoleReporter()
	reporter.OutputPositions(agent.Ledger().Positions())

	log.Println("Agent stopped")
}

func runBacktest(cfg *config.Config, dataDir, reportDir, startArg, endArg string) {
	start, err := time.Parse(dateLayout, startArg)
	if err != nil {
		log.Fatalf("❌ Invalid start date %q: %v", startArg, err)
	}
	end, err := time.Parse(dateLayout, endArg)
	if err != nil {
		log.Fatalf("❌ Invalid end date %q: %v", endArg, err)
	}
	if !end.After(start) {
		log.Fatalf("❌ End date must be after start date")
	}
	// Inclusive end day.
	end = end.Add(24*time.Hour - time.Nanosecond)

	strat, err := buildStrategy(cfg)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	provider := data.NewCSVProvider()
	filter := data.NewDefaultDataFilter()

	series := make(map[string][]types.MarketSnapshot, len(cfg.Trading.Symbols))
	for _, symbol := range cfg.Trading.Symbols {
		path := filepath.Join(dataDir, symbol+".csv")
		snapshots, err := provider.LoadData(path, symbol)
		if err != nil {
			log.Fatalf("❌ Failed to load data for %s: %v", symbol, err)
		}

		snapshots = filter.SortByTimestamp(snapshots)
		snapshots = filter.RemoveDuplicates(snapshots)
		snapshots = filter.FilterByDateRange(snapshots, start, end)
		if err := filter.ValidateTimeSequence(snapshots); err != nil {
			log.Fatalf("❌ Bad data for %s: %v", symbol, err)
		}
		if len(snapshots) == 0 {
			log.Printf("⚠️ No data for %s in range, skipping", symbol)
			continue
		}

		log.Printf("📊 Loaded %d snapshots for %s (%s to %s)",
			len(snapshots), symbol,
			snapshots[0].Timestamp.Format(dateLayout),
			snapshots[len(snapshots)-1].Timestamp.Format(dateLayout))
		series[symbol] = snapshots
	}
	if len(series) == 0 {
		log.Fatalf("❌ No usable data in range %s to %s", startArg, endArg)
	}

	engine := backtest.NewEngine(backtest.Config{
		InitialBalance:   cfg.Trading.InitialBalance,
		WindowSize:       cfg.Trading.WindowSize,
		ParticipationCap: cfg.Trading.ParticipationCap,
		Limits:           cfg.Risk,
	}, strat)

	report, err := engine.Run(series)
	if err != nil {
		log.Fatalf("💥 Backtest aborted: %v", err)
	}

	reporter := reporting.NewDefaultConsoleReporter()
	reporter.OutputReport(report)
	reporter.OutputTrades(engine.Ledger().Trades())

	jsonPath := filepath.Join(reportDir, "report.json")
	if err := reporting.WriteReportJSON(report, jsonPath); err != nil {
		log.Printf("⚠️ Failed to write JSON report: %v", err)
	} else {
		log.Printf("💾 JSON report written to %s", jsonPath)
	}

	xlsxPath := filepath.Join(reportDir, "report.xlsx")
	excel := reporting.NewDefaultExcelReporter()
	if err := excel.WriteReportXLSX(report, engine.Ledger().Trades(), engine.Ledger().EquityCurve(), xlsxPath); err != nil {
		log.Printf("⚠️ Failed to write Excel report: %v", err)
	} else {
		log.Printf("💾 Excel report written to %s", xlsxPath)
	}
}

func setupMonitoringServers(cfg *config.Config, healthChecker *monitoring.HealthChecker) {
	healthMux := http.NewServeMux()
	healthMux.Handle("/health", healthChecker)

	go func() {
		log.Printf("Starting health server on port %d", cfg.Monitoring.HealthPort)
		if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Monitoring.HealthPort), healthMux); err != nil {
			log.Printf("Health server error: %v", err)
		}
	}()

	go func() {
		log.Printf("Starting Prometheus server on port %d", cfg.Monitoring.PrometheusPort)
		if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort), monitoring.NewMetricsHandler()); err != nil {
			log.Printf("Prometheus server error: %v", err)
		}
	}()
}
