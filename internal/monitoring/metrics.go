package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Decision pipeline metrics
	signalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alpha_agent_signals_total",
			Help: "Total number of signals evaluated",
		},
		[]string{"symbol", "direction"},
	)

	suppressionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alpha_agent_suppressions_total",
			Help: "Signals suppressed by the risk manager, by reason code",
		},
		[]string{"symbol", "reason"},
	)

	ordersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alpha_agent_orders_total",
			Help: "Orders created by the risk manager",
		},
		[]string{"symbol", "side"},
	)

	fillsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alpha_agent_fills_total",
			Help: "Orders reaching a terminal state",
		},
		[]string{"symbol", "status"},
	)

	// Portfolio metrics
	portfolioEquity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "alpha_agent_portfolio_equity",
			Help: "Current mark-to-market portfolio equity",
		},
	)

	portfolioDrawdown = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "alpha_agent_portfolio_drawdown",
			Help: "Current peak-to-current drawdown fraction",
		},
	)

	currentPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "alpha_agent_current_price",
			Help: "Latest observed price per symbol",
		},
		[]string{"symbol"},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alpha_agent_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(signalsTotal)
	prometheus.MustRegister(suppressionsTotal)
	prometheus.MustRegister(ordersTotal)
	prometheus.MustRegister(fillsTotal)
	prometheus.MustRegister(portfolioEquity)
	prometheus.MustRegister(portfolioDrawdown)
	prometheus.MustRegister(currentPrice)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler handles the Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordSignal records an evaluated signal
func RecordSignal(symbol, direction string) {
	signalsTotal.WithLabelValues(symbol, direction).Inc()
}

// RecordSuppression records a risk-manager suppression with its reason code
func RecordSuppression(symbol, reason string) {
	suppressionsTotal.WithLabelValues(symbol, reason).Inc()
}

// RecordOrderCreated records an order emitted by the risk manager
func RecordOrderCreated(symbol, side string) {
	ordersTotal.WithLabelValues(symbol, side).Inc()
}

// RecordOrderResolved records an order reaching FILLED or REJECTED
func RecordOrderResolved(symbol, status string) {
	fillsTotal.WithLabelValues(symbol, status).Inc()
}

// UpdatePortfolio updates equity and drawdown gauges
func UpdatePortfolio(equity, drawdown float64) {
	portfolioEquity.Set(equity)
	portfolioDrawdown.Set(drawdown)
}

// UpdatePrice updates the latest price gauge for a symbol
func UpdatePrice(symbol string, price float64) {
	currentPrice.WithLabelValues(symbol).Set(price)
}

// RecordError records an error metric
func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
}
