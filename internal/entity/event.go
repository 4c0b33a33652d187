package entity

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Publisher interface {
	JetstreamEventInit(ctx context.Context) error
}

type OrderPlacedEvent struct {
	EventID     string          `json:"event_id"`
	OrderID     int64           `json:"order_id"`
	ExecutionID int64           `json:"execution_id"`
	AccountID   string          `json:"account_id"`
	Symbol      string          `json:"symbol"`
	Side        OrderSide       `json:"side"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	ExecutedAt  time.Time       `json:"executed_at"`
}
