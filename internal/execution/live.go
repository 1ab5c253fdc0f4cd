package execution

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cryptoalpha/alpha-agent/internal/exchange"
	"github.com/cryptoalpha/alpha-agent/internal/monitoring"
	"github.com/cryptoalpha/alpha-agent/internal/portfolio"
	"github.com/cryptoalpha/alpha-agent/pkg/types"
)

// LiveDriver submits orders to the exchange collaborator with bounded
// retries. Orders may be executed concurrently across independent symbols;
// ledger mutations serialize inside ApplyFill, preserving the equity
// invariant.
type LiveDriver struct {
	exchange exchange.Exchange
	ledger   *portfolio.Ledger
	retry    RetryConfig
}

// NewLiveDriver creates a live driver bound to one ledger
func NewLiveDriver(exch exchange.Exchange, ledger *portfolio.Ledger, retry RetryConfig) *LiveDriver {
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryConfig()
	}
	return &LiveDriver{
		exchange: exch,
		ledger:   ledger,
		retry:    retry,
	}
}

// Execute runs the order through SUBMITTED to a terminal FILLED or
// REJECTED state. Cancelling ctx stops new attempts promptly, but an
// attempt already in flight resolves on a detached context so the ledger
// is never left with an orphaned order.
func (d *LiveDriver) Execute(ctx context.Context, order *types.Order) error {
	if order.Side == types.OrderBuy && order.Notional() > d.ledger.Cash() {
		order.Status = types.OrderRejected
		order.RejectReason = fmt.Sprintf("cost %.2f exceeds cash %.2f", order.Notional(), d.ledger.Cash())
		monitoring.RecordOrderResolved(order.Symbol, order.Status.String())
		return nil
	}

	// In-flight resolution survives run cancellation, bounded by the
	// resolve timeout.
	resolveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.retry.ResolveTimeout)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= d.retry.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			d.reject(order, fmt.Sprintf("run cancelled before attempt %d", attempt))
			return ctx.Err()
		default:
		}

		order.Status = types.OrderSubmitted
		fill, err := d.exchange.SubmitOrder(resolveCtx, order)
		if err == nil {
			if applyErr := d.ledger.ApplyFill(order, *fill); applyErr != nil {
				return applyErr
			}
			order.Status = types.OrderFilled
			monitoring.RecordOrderResolved(order.Symbol, order.Status.String())
			return nil
		}

		lastErr = err
		log.Printf("[EXEC] submit attempt %d/%d for %s %s failed: %v",
			attempt, d.retry.MaxAttempts, order.Side, order.Symbol, err)
		monitoring.RecordError("order_submit")

		if !exchange.IsRetryable(err) || attempt == d.retry.MaxAttempts {
			break
		}

		delay := d.retry.backoffDelay(attempt - 1)
		select {
		case <-ctx.Done():
			d.reject(order, fmt.Sprintf("run cancelled during backoff: %v", lastErr))
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	d.reject(order, fmt.Sprintf("retries exhausted: %v", lastErr))
	return nil
}

func (d *LiveDriver) reject(order *types.Order, reason string) {
	order.Status = types.OrderRejected
	order.RejectReason = reason
	monitoring.RecordOrderResolved(order.Symbol, order.Status.String())
}
