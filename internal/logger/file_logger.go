package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cryptoalpha/alpha-agent/pkg/types"
)

// Logger writes a per-session audit trail of agent decisions to a file.
// It complements stdout logging; the decision core never depends on it.
type Logger struct {
	logFile *os.File
	logger  *log.Logger
	mu      sync.Mutex
	logDir  string
	path    string
}

// LogLevel represents different types of log entries
type LogLevel string

const (
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARN"
	LogLevelError   LogLevel = "ERROR"
	LogLevelTrade   LogLevel = "TRADE"
	LogLevelRisk    LogLevel = "RISK"
	LogLevelStatus  LogLevel = "STATUS"
)

// NewLogger creates a dated session log file under logDir.
func NewLogger(logDir, label string) (*Logger, error) {
	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.log", label, time.Now().Format("2006-01-02"))
	logPath := filepath.Join(logDir, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := &Logger{
		logFile: file,
		logger:  log.New(file, "", 0),
		logDir:  logDir,
		path:    logPath,
	}

	l.writeSessionHeader(label)
	return l, nil
}

func (l *Logger) writeSessionHeader(label string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	header := fmt.Sprintf(`
================================================================================
🚀 TRADING SESSION STARTED
================================================================================
Session: %s
Started: %s
================================================================================
`, label, time.Now().Format("2006-01-02 15:04:05"))

	l.logger.Print(header)
}

// Log writes a formatted log entry with the specified level
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] [%s] %s", timestamp, level, message)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(LogLevelWarning, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

// LogSuppression records a risk-manager veto with its reason code.
func (l *Logger) LogSuppression(symbol, reason, detail string) {
	l.Log(LogLevelRisk, "%s suppressed [%s]: %s", symbol, reason, detail)
}

// LogOrderResolved records an order reaching a terminal state.
func (l *Logger) LogOrderResolved(order *types.Order, fill *types.Fill) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")

	if order.Status == types.OrderFilled {
		price := order.RequestedPrice
		quantity := order.Quantity
		if fill != nil {
			price = fill.Price
			quantity = fill.Quantity
		}
		l.logger.Printf(`
[%s] [TRADE] ==================== %s FILLED ====================
✅ Symbol: %s
📦 Quantity: %.6f
💰 Fill Price: $%.2f
💵 Value: $%.2f
=============================================================`,
			timestamp, order.Side, order.Symbol, quantity, price, price*quantity)
		return
	}

	l.logger.Printf("[%s] [TRADE] %s %s %.6f REJECTED: %s",
		timestamp, order.Side, order.Symbol, order.Quantity, order.RejectReason)
}

// LogPortfolioStatus records one cycle's portfolio state.
func (l *Logger) LogPortfolioStatus(equity, cash, drawdown float64, positions int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	l.logger.Printf(`
[%s] [STATUS] ==================== PORTFOLIO ====================
💼 Equity: $%.2f | Cash: $%.2f
📉 Drawdown: %.2f%% | Open Positions: %d
==========================================================`,
		timestamp, equity, cash, drawdown*100, positions)
}

// LogError logs error with context
func (l *Logger) LogError(context string, err error) {
	l.Error("%s: %v", context, err)
}

// Close writes the session footer and closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile != nil {
		footer := fmt.Sprintf(`
================================================================================
🛑 TRADING SESSION ENDED
================================================================================
Ended: %s
================================================================================

`, time.Now().Format("2006-01-02 15:04:05"))
		l.logger.Print(footer)

		return l.logFile.Close()
	}
	return nil
}

// GetLogPath returns the current log file path
func (l *Logger) GetLogPath() string {
	return l.path
}
