package entity

import (
	"errors"
	"strings"
	"time"
)

type OrderSide string
type OrderStatus string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"

	OrderStatusCreated   OrderStatus = "CREATED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

var (
	ErrOrderRequired      = errors.New("order is required")
	ErrAccountIDRequired  = errors.New("account id is required")
	ErrSymbolRequired     = errors.New("symbol is required")
	ErrInvalidOrderSide   = errors.New("invalid order side")
	ErrInvalidOrderStatus = errors.New("invalid order status")
)

type Order struct {
	ID        int64       `db:"id" json:"id,omitempty"`
	AccountID string      `db:"account_id" json:"account_id"`
	Symbol    string      `db:"symbol" json:"symbol"`
	Side      OrderSide   `db:"side" json:"side"`
	Quantity  int         `db:"quantity" json:"quantity"`
	Status    OrderStatus `db:"status" json:"status"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

func (o Order) TableName() string {
	return "orders"
}

// Validate checks the fields required for order intake. Quantity is
// deliberately not checked here: the placement workflow validates it at
// pricing time, after the rate-limit permit has been consumed.
func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderRequired
	}
	if strings.TrimSpace(o.AccountID) == "" {
		return ErrAccountIDRequired
	}
	if strings.TrimSpace(o.Symbol) == "" {
		return ErrSymbolRequired
	}
	if o.Side != OrderSideBuy && o.Side != OrderSideSell {
		return ErrInvalidOrderSide
	}
	// Empty status is fine, the workflow defaults it to CREATED.
	switch o.Status {
	case "", OrderStatusCreated, OrderStatusCompleted, OrderStatusCancelled:
	default:
		return ErrInvalidOrderStatus
	}

	return nil
}
