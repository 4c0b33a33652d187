package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/minimarket/order-service/internal/entity"
)

type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order and assigns its identity. The runner is either
// the pool or an open transaction so the caller controls the commit scope.
func (r *OrderRepository) Create(ctx context.Context, runner sqlx.ExtContext, order *entity.Order) error {
	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Insert(order.TableName()).
		Columns(
			"account_id",
			"symbol",
			"side",
			"quantity",
			"status",
			"created_at",
		).
		Values(
			order.AccountID,
			order.Symbol,
			order.Side,
			order.Quantity,
			order.Status,
			order.CreatedAt,
		).
		Suffix("RETURNING id")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return err
	}

	var id int64
	err = runner.QueryRowxContext(ctx, query, args...).Scan(&id)
	if err != nil {
		return err
	}

	order.ID = id

	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	var order entity.Order
	err := r.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) GetByAccountID(ctx context.Context, accountID string) ([]entity.Order, error) {
	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select("*").
		From("orders").
		Where(sq.Eq{"account_id": accountID}).
		OrderBy("created_at desc")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, err
	}

	orders := []entity.Order{}
	err = r.db.SelectContext(ctx, &orders, query, args...)
	if err != nil {
		return nil, err
	}

	return orders, nil
}
