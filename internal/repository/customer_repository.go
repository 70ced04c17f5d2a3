package repository

import (
	"context"

	"bizapp/internal/domain/model"
)

type CustomerRepository interface {
	Create(ctx context.Context, c model.Customer) (model.Customer, error)
	FindByID(ctx context.Context, id int64) (model.Customer, error)
	//authorの顧客だけを一覧（ダッシュボード用）
	ListByAuthor(ctx context.Context, userID int64) ([]model.Customer, error)
	Update(ctx context.Context, c model.Customer) error
}
