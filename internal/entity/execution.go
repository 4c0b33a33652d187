package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Execution struct {
	ID         int64           `db:"id" json:"id,omitempty"`
	OrderID    int64           `db:"order_id" json:"order_id"`
	Price      decimal.Decimal `db:"price" json:"price"`
	ExecutedAt time.Time       `db:"executed_at" json:"executed_at"`
}

func (e Execution) TableName() string {
	return "executions"
}

type PriceQuote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}
