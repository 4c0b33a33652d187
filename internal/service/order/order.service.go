package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/minimarket/order-service/internal/constant"
	"github.com/minimarket/order-service/internal/entity"
	"github.com/minimarket/order-service/internal/service/ratelimit"
	"github.com/minimarket/order-service/internal/util"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	// Each placement consumes one permit of the account's window quota,
	// regardless of order size.
	rateLimitPermits = 1

	priceScale = 6
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

type orderStore interface {
	Create(ctx context.Context, runner sqlx.ExtContext, order *entity.Order) error
	GetByID(ctx context.Context, id int64) (*entity.Order, error)
	GetByAccountID(ctx context.Context, accountID string) ([]entity.Order, error)
}

type executionStore interface {
	Create(ctx context.Context, runner sqlx.ExtContext, execution *entity.Execution) error
}

type priceSource interface {
	GetPrice(ctx context.Context, order *entity.Order) (decimal.Decimal, error)
}

type transactor interface {
	WithinTx(ctx context.Context, fn func(tx sqlx.ExtContext) error) error
}

type OrderService struct {
	limiter    ratelimit.Limiter
	orders     orderStore
	executions executionStore
	pricing    priceSource
	tx         transactor
	js         nats.JetStreamContext
	now        func() time.Time
}

func NewOrderService(limiter ratelimit.Limiter, orders orderStore, executions executionStore, pricing priceSource, tx transactor) *OrderService {
	return &OrderService{
		limiter:    limiter,
		orders:     orders,
		executions: executions,
		pricing:    pricing,
		tx:         tx,
		now:        time.Now,
	}
}

// WithJetstream enables best-effort order-placed event publishing.
func (s *OrderService) WithJetstream(js nats.JetStreamContext) *OrderService {
	s.js = js
	return s
}

func (s *OrderService) JetstreamEventInit(ctx context.Context) error {
	if s.js == nil {
		return nil
	}

	streamConfig := &nats.StreamConfig{
		Name:      constant.OrderIntakeStreamName,
		Subjects:  []string{constant.OrderIntakeStreamSubjectAll},
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Replicas:  1,
	}

	stream, err := s.js.StreamInfo(constant.OrderIntakeStreamName, nats.Context(ctx))
	if err != nil && !errors.Is(err, nats.ErrStreamNotFound) {
		logrus.Error(err)
		return err
	}

	if stream == nil {
		logrus.Infof("creating stream: %s", constant.OrderIntakeStreamName)
		_, err = s.js.AddStream(streamConfig, nats.Context(ctx))
		return err
	}

	logrus.Infof("updating stream: %s", constant.OrderIntakeStreamName)
	_, err = s.js.UpdateStream(streamConfig, nats.Context(ctx))
	if err != nil {
		logrus.Error(err)
		return err
	}

	return nil
}

// PlaceOrder runs the placement workflow: validate, consume one rate-limit
// permit, fetch and round the price, then persist the order and its
// execution in one transaction. The quantity check happens inside the
// price lookup, after the permit has been consumed.
func (s *OrderService) PlaceOrder(ctx context.Context, order *entity.Order) (*entity.PriceQuote, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	allowed, err := s.limiter.Acquire(ctx, order.AccountID, rateLimitPermits)
	if err != nil {
		logrus.Error(err)
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("%w for account: %s", ErrRateLimitExceeded, order.AccountID)
	}

	rawPrice, err := s.pricing.GetPrice(ctx, order)
	if err != nil {
		return nil, err
	}

	price := rawPrice.Round(priceScale)

	if order.Status == "" {
		order.Status = entity.OrderStatusCreated
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = s.now().UTC()
	}

	execution := &entity.Execution{
		Price:      price,
		ExecutedAt: s.now().UTC(),
	}

	err = s.tx.WithinTx(ctx, func(tx sqlx.ExtContext) error {
		if err := s.orders.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("save order: %w", err)
		}

		execution.OrderID = order.ID
		if err := s.executions.Create(ctx, tx, execution); err != nil {
			return fmt.Errorf("save execution: %w", err)
		}

		return nil
	})
	if err != nil {
		logrus.Error(err)
		return nil, err
	}

	s.publishOrderPlaced(order, execution)

	return &entity.PriceQuote{
		Symbol: order.Symbol,
		Price:  price,
	}, nil
}

func (s *OrderService) GetOrderByID(ctx context.Context, id int64) (*entity.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w with id: %d", ErrOrderNotFound, id)
		}
		logrus.Error(err)
		return nil, err
	}

	return order, nil
}

func (s *OrderService) GetOrdersByAccountID(ctx context.Context, accountID string) ([]entity.Order, error) {
	orders, err := s.orders.GetByAccountID(ctx, accountID)
	if err != nil {
		logrus.Error(err)
		return nil, err
	}

	return orders, nil
}

func (s *OrderService) publishOrderPlaced(order *entity.Order, execution *entity.Execution) {
	if s.js == nil {
		return
	}

	event := entity.OrderPlacedEvent{
		EventID:     uuid.NewString(),
		OrderID:     order.ID,
		ExecutionID: execution.ID,
		AccountID:   order.AccountID,
		Symbol:      order.Symbol,
		Side:        order.Side,
		Quantity:    order.Quantity,
		Price:       execution.Price,
		ExecutedAt:  execution.ExecutedAt,
	}

	if err := util.PublishEvent(s.js, constant.OrderIntakeStreamSubjectOrderPlaced, event); err != nil {
		logrus.Warnf("failed to publish order placed event: %v", err)
	}
}
