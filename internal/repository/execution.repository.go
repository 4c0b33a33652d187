package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/minimarket/order-service/internal/entity"
)

type ExecutionRepository struct {
	db *sqlx.DB
}

func NewExecutionRepository(db *sqlx.DB) *ExecutionRepository {
	return &ExecutionRepository{db: db}
}

func (r *ExecutionRepository) Create(ctx context.Context, runner sqlx.ExtContext, execution *entity.Execution) error {
	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Insert(execution.TableName()).
		Columns(
			"order_id",
			"price",
			"executed_at",
		).
		Values(
			execution.OrderID,
			execution.Price,
			execution.ExecutedAt,
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

	execution.ID = id

	return nil
}
