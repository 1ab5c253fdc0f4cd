package exchange

import (
	"context"
	"errors"
	"fmt"

	"github.com/cryptoalpha/alpha-agent/pkg/types"
)

// Exchange is the collaborator the live execution driver submits orders
// to. The core treats it as an opaque, possibly-slow, possibly-failing
// remote service.
type Exchange interface {
	GetName() string
	Connect(ctx context.Context) error
	Disconnect() error

	// Market data
	GetTicker(ctx context.Context, symbol string) (*types.Ticker, error)
	GetSnapshots(ctx context.Context, symbol string, interval string, limit int) ([]types.MarketSnapshot, error)

	// Trading
	SubmitOrder(ctx context.Context, order *types.Order) (*types.Fill, error)
	GetBalance(ctx context.Context, asset string) (*types.Balance, error)
}

// ExchangeError carries the exchange's rejection or transport failure with
// enough context for the retry loop to classify it.
type ExchangeError struct {
	Code        string
	Message     string
	Details     string
	IsRetryable bool
}

func (e *ExchangeError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("exchange error %s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("exchange error %s: %s", e.Code, e.Message)
}

// IsRetryable reports whether err is worth retrying: either an
// ExchangeError flagged retryable or a generic transport failure.
func IsRetryable(err error) bool {
	var ee *ExchangeError
	if errors.As(err, &ee) {
		return ee.IsRetryable
	}
	// Unclassified errors (timeouts, connection resets) are assumed
	// transient.
	return true
}
