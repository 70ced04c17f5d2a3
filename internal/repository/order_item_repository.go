package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"bizapp/internal/domain/model"
)

// 売上集計の1行（商品単位）
type ProductSales struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	//期間内の商品別売上（数量と金額）
	SumByProduct(ctx context.Context, from *time.Time, to *time.Time) ([]ProductSales, error)
}
