package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/cryptoalpha/alpha-agent/internal/exchange"
	"github.com/cryptoalpha/alpha-agent/pkg/types"
)

// Config holds the configuration for the Bybit client
type Config struct {
	APIKey    string
	APISecret string
	Category  string // "spot" or "linear"
	Testnet   bool
	Demo      bool // demo trading environment (paper trading)
}

// Client implements exchange.Exchange against the Bybit v5 API.
type Client struct {
	httpClient *bybit_api.Client
	category   string
	testnet    bool
	demo       bool
	connected  bool
}

// NewClient creates a new Bybit client
func NewClient(config Config) *Client {
	var baseURL string
	if config.Demo {
		baseURL = "https://api-demo.bybit.com"
	} else if config.Testnet {
		baseURL = bybit_api.TESTNET
	} else {
		baseURL = bybit_api.MAINNET
	}

	httpClient := bybit_api.NewBybitHttpClient(
		config.APIKey,
		config.APISecret,
		bybit_api.WithBaseURL(baseURL),
	)

	category := config.Category
	if category == "" {
		category = "spot"
	}

	return &Client{
		httpClient: httpClient,
		category:   category,
		testnet:    config.Testnet,
		demo:       config.Demo,
	}
}

// GetName returns the exchange name
func (c *Client) GetName() string {
	return "Bybit"
}

// Connect verifies connectivity with a lightweight market-data call.
func (c *Client) Connect(ctx context.Context) error {
	if _, err := c.GetTicker(ctx, "BTCUSDT"); err != nil {
		return &exchange.ExchangeError{
			Code:        "CONNECTION_FAILED",
			Message:     "failed to connect to Bybit",
			Details:     err.Error(),
			IsRetryable: true,
		}
	}
	c.connected = true
	return nil
}

// Disconnect closes the connection to the exchange
func (c *Client) Disconnect() error {
	c.connected = false
	return nil
}

// GetTicker retrieves the latest ticker for a symbol
func (c *Client) GetTicker(ctx context.Context, symbol string) (*types.Ticker, error) {
	params := map[string]interface{}{
		"category": c.category,
		"symbol":   symbol,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticker: %w", err)
	}

	payload, err := resultPayload(result)
	if err != nil {
		return nil, err
	}

	var tickerResult struct {
		List []struct {
			Symbol    string `json:"symbol"`
			LastPrice string `json:"lastPrice"`
			Volume24h string `json:"volume24h"`
		} `json:"list"`
	}
	if err := json.Unmarshal(payload, &tickerResult); err != nil {
		return nil, fmt.Errorf("failed to parse ticker response: %w", err)
	}
	if len(tickerResult.List) == 0 {
		return nil, &exchange.ExchangeError{Code: "SYMBOL_NOT_FOUND", Message: "no ticker for " + symbol}
	}

	price, _ := strconv.ParseFloat(tickerResult.List[0].LastPrice, 64)
	volume, _ := strconv.ParseFloat(tickerResult.List[0].Volume24h, 64)
	return &types.Ticker{
		Symbol:    symbol,
		Price:     price,
		Volume:    volume,
		Timestamp: time.Now(),
	}, nil
}

// GetSnapshots fetches recent klines and normalizes them into snapshots,
// oldest first, using each bar's close as the observation price.
func (c *Client) GetSnapshots(ctx context.Context, symbol string, interval string, limit int) ([]types.MarketSnapshot, error) {
	if limit <= 0 {
		limit = 200
	}
	if limit > 1000 {
		limit = 1000
	}

	params := map[string]interface{}{
		"category": c.category,
		"symbol":   symbol,
		"interval": interval,
		"limit":    limit,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get klines: %w", err)
	}

	payload, err := resultPayload(result)
	if err != nil {
		return nil, err
	}

	var klineResult struct {
		Symbol string     `json:"symbol"`
		List   [][]string `json:"list"`
	}
	if err := json.Unmarshal(payload, &klineResult); err != nil {
		return nil, fmt.Errorf("failed to parse kline response: %w", err)
	}

	// Bybit returns newest first; each row is
	// [startTime, open, high, low, close, volume, turnover].
	snapshots := make([]types.MarketSnapshot, 0, len(klineResult.List))
	for i := len(klineResult.List) - 1; i >= 0; i-- {
		row := klineResult.List[i]
		if len(row) < 6 {
			continue
		}
		ms, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}
		closePrice, err := strconv.ParseFloat(row[4], 64)
		if err != nil || closePrice <= 0 {
			continue
		}
		volume, _ := strconv.ParseFloat(row[5], 64)

		snapshots = append(snapshots, types.MarketSnapshot{
			Symbol:    symbol,
			Timestamp: time.UnixMilli(ms),
			Price:     closePrice,
			Volume:    volume,
		})
	}

	return snapshots, nil
}

// SubmitOrder places a market order and polls until it reaches a terminal
// state, returning the realized fill.
func (c *Client) SubmitOrder(ctx context.Context, order *types.Order) (*types.Fill, error) {
	side := "Buy"
	if order.Side == types.OrderSell {
		side = "Sell"
	}

	params := map[string]interface{}{
		"category":  c.category,
		"symbol":    order.Symbol,
		"side":      side,
		"orderType": "Market",
		"qty":       strconv.FormatFloat(order.Quantity, 'f', -1, 64),
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).PlaceOrder(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	payload, err := resultPayload(result)
	if err != nil {
		return nil, err
	}

	var placed struct {
		OrderID string `json:"orderId"`
	}
	if err := json.Unmarshal(payload, &placed); err != nil || placed.OrderID == "" {
		return nil, &exchange.ExchangeError{
			Code:    "ORDER_PARSE_FAILED",
			Message: "order response missing orderId",
		}
	}

	return c.awaitFill(ctx, order.Symbol, placed.OrderID)
}

// awaitFill polls order history until the order resolves.
func (c *Client) awaitFill(ctx context.Context, symbol, orderID string) (*types.Fill, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		status, err := c.getOrderStatus(ctx, symbol, orderID)
		if err == nil {
			switch status.OrderStatus {
			case "Filled":
				price, _ := strconv.ParseFloat(status.AvgPrice, 64)
				qty, _ := strconv.ParseFloat(status.CumExecQty, 64)
				if price <= 0 || qty <= 0 {
					return nil, &exchange.ExchangeError{
						Code:    "FILL_PARSE_FAILED",
						Message: fmt.Sprintf("unusable fill for order %s", orderID),
					}
				}
				return &types.Fill{
					Symbol:    symbol,
					Price:     price,
					Quantity:  qty,
					Timestamp: time.Now(),
				}, nil
			case "Cancelled", "Rejected":
				return nil, &exchange.ExchangeError{
					Code:        "ORDER_REJECTED",
					Message:     fmt.Sprintf("order %s ended %s", orderID, status.OrderStatus),
					IsRetryable: false,
				}
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

type orderStatus struct {
	OrderID     string `json:"orderId"`
	OrderStatus string `json:"orderStatus"`
	AvgPrice    string `json:"avgPrice"`
	CumExecQty  string `json:"cumExecQty"`
}

func (c *Client) getOrderStatus(ctx context.Context, symbol, orderID string) (*orderStatus, error) {
	params := map[string]interface{}{
		"category": c.category,
		"symbol":   symbol,
		"orderId":  orderID,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetOrderHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get order status: %w", err)
	}

	payload, err := resultPayload(result)
	if err != nil {
		return nil, err
	}

	var history struct {
		List []orderStatus `json:"list"`
	}
	if err := json.Unmarshal(payload, &history); err != nil {
		return nil, fmt.Errorf("failed to parse order history: %w", err)
	}
	for i := range history.List {
		if history.List[i].OrderID == orderID {
			return &history.List[i], nil
		}
	}
	return nil, &exchange.ExchangeError{
		Code:        "ORDER_NOT_FOUND",
		Message:     fmt.Sprintf("order %s not yet visible", orderID),
		IsRetryable: true,
	}
}

// GetBalance retrieves the wallet balance for an asset
func (c *Client) GetBalance(ctx context.Context, asset string) (*types.Balance, error) {
	params := map[string]interface{}{
		"accountType": "UNIFIED",
		"coin":        asset,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetAccountWallet(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	payload, err := resultPayload(result)
	if err != nil {
		return nil, err
	}

	var wallet struct {
		List []struct {
			Coin []struct {
				Coin          string `json:"coin"`
				WalletBalance string `json:"walletBalance"`
				Locked        string `json:"locked"`
			} `json:"coin"`
		} `json:"list"`
	}
	if err := json.Unmarshal(payload, &wallet); err != nil {
		return nil, fmt.Errorf("failed to parse wallet response: %w", err)
	}

	for _, account := range wallet.List {
		for _, coin := range account.Coin {
			if coin.Coin == asset {
				free, _ := strconv.ParseFloat(coin.WalletBalance, 64)
				locked, _ := strconv.ParseFloat(coin.Locked, 64)
				return &types.Balance{Asset: asset, Free: free, Locked: locked}, nil
			}
		}
	}
	return &types.Balance{Asset: asset}, nil
}

// resultPayload validates the API envelope and re-marshals the result for
// typed decoding.
func resultPayload(response interface{}) ([]byte, error) {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return nil, &exchange.ExchangeError{Code: "BAD_RESPONSE", Message: "unexpected response type"}
	}
	if serverResp.RetCode != 0 {
		return nil, &exchange.ExchangeError{
			Code:        strconv.Itoa(serverResp.RetCode),
			Message:     serverResp.RetMsg,
			IsRetryable: isRetryableCode(serverResp.RetCode),
		}
	}
	payload, err := json.Marshal(serverResp.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return payload, nil
}

// isRetryableCode classifies Bybit return codes worth retrying.
func isRetryableCode(code int) bool {
	switch code {
	case 10006: // rate limit exceeded
		return true
	case 10016: // service temporarily unavailable
		return true
	case 500, 502, 503, 504:
		return true
	}
	return false
}
