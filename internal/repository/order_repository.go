package repository

import (
	"context"
	"time"

	"bizapp/internal/domain/model"
)

type OrderListFilter struct {
	Page  int
	Limit int
	From  *time.Time
	To    *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	//スタッフは全注文を見られる
	List(ctx context.Context, f OrderListFilter) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)
}
