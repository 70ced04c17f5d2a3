package usecase

import (
	"context"
	"time"

	repo "bizapp/internal/repository"

	"github.com/shopspring/decimal"
)

type ReportUsecase struct {
	orderItems repo.OrderItemRepository
}

func NewReportUsecase(orderItems repo.OrderItemRepository) *ReportUsecase {
	return &ReportUsecase{orderItems: orderItems}
}

type SalesReportOutput struct {
	Items        []repo.ProductSales `json:"items"`
	TotalRevenue decimal.Decimal     `json:"total_revenue"`
}

// 商品別の売上レポート。from/toは省略可
func (u *ReportUsecase) SalesReport(ctx context.Context, from *time.Time, to *time.Time) (SalesReportOutput, error) {
	if from != nil && to != nil && to.Before(*from) {
		return SalesReportOutput{}, ErrValidation
	}

	rows, err := u.orderItems.SumByProduct(ctx, from, to)
	if err != nil {
		return SalesReportOutput{}, err
	}

	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Revenue)
	}

	return SalesReportOutput{
		Items:        rows,
		TotalRevenue: total,
	}, nil
}
