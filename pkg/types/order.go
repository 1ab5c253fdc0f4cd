package types

import "time"

// OrderSide represents the side of an order
type OrderSide int

const (
	OrderBuy OrderSide = iota
	OrderSell
)

func (s OrderSide) String() string {
	switch s {
	case OrderBuy:
		return "BUY"
	case OrderSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Sign returns +1 for buys and -1 for sells, the direction the
// position quantity moves when the order fills.
func (s OrderSide) Sign() float64 {
	if s == OrderSell {
		return -1
	}
	return 1
}

// OrderStatus represents the lifecycle state of an order
type OrderStatus int

const (
	OrderPending OrderStatus = iota
	OrderSubmitted
	OrderFilled
	OrderRejected
)

func (st OrderStatus) String() string {
	switch st {
	case OrderPending:
		return "PENDING"
	case OrderSubmitted:
		return "SUBMITTED"
	case OrderFilled:
		return "FILLED"
	case OrderRejected:
		return "REJECTED"
	}
	return "UNKNOWN"
}

// Order is created by the risk manager and consumed by an execution
// driver, which writes the terminal status back.
type Order struct {
	Symbol         string
	Side           OrderSide
	Quantity       float64
	RequestedPrice float64
	Status         OrderStatus
	CreatedAt      time.Time
	RejectReason   string
}

// Notional returns the requested order value in quote currency.
func (o *Order) Notional() float64 {
	return o.Quantity * o.RequestedPrice
}

// Fill is the result of executing an order, live or simulated.
type Fill struct {
	Symbol    string
	Side      OrderSide
	Price     float64
	Quantity  float64
	Timestamp time.Time
}
