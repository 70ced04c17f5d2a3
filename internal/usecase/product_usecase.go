package usecase

import (
	"context"
	"errors"
	"strings"

	"bizapp/internal/domain/model"
	repo "bizapp/internal/repository"

	"github.com/shopspring/decimal"
)

type ProductUsecase struct {
	products repo.ProductRepository
}

func NewProductUsecase(products repo.ProductRepository) *ProductUsecase {
	return &ProductUsecase{products: products}
}

type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	Category    string          `json:"category"`
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) List(ctx context.Context, q repo.ProductListQuery) (ProductListOutput, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 50
	}

	items, total, err := u.products.List(ctx, q)
	if err != nil {
		return ProductListOutput{}, err
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
	}, nil
}

func (u *ProductUsecase) Get(ctx context.Context, id int64) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, ErrNotFound
	}

	p, err := u.products.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// 商品登録はスタッフなら誰でもできる（所有制限なし）
func (u *ProductUsecase) Create(ctx context.Context, userID int64, in ProductInput) (model.Product, error) {
	if userID <= 0 {
		return model.Product{}, ErrUnauthorized
	}
	if err := validateProductInput(in); err != nil {
		return model.Product{}, err
	}

	p, err := u.products.Create(ctx, model.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    strings.TrimSpace(in.Category),
	})
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (u *ProductUsecase) Update(ctx context.Context, userID int64, id int64, in ProductInput) (model.Product, error) {
	if userID <= 0 {
		return model.Product{}, ErrUnauthorized
	}
	if id <= 0 {
		return model.Product{}, ErrNotFound
	}
	if err := validateProductInput(in); err != nil {
		return model.Product{}, err
	}

	p, err := u.products.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}

	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price
	p.Stock = in.Stock
	p.Category = strings.TrimSpace(in.Category)

	if err := u.products.Update(ctx, p); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Product{}, ErrNotFound
		}
		return model.Product{}, err
	}
	return p, nil
}

func validateProductInput(in ProductInput) error {
	name := strings.TrimSpace(in.Name)
	if len(name) < 2 || len(name) > 100 {
		return ErrValidation
	}
	category := strings.TrimSpace(in.Category)
	if len(category) < 2 || len(category) > 50 {
		return ErrValidation
	}
	if in.Price.IsNegative() || in.Price.IsZero() {
		return ErrValidation
	}
	if in.Stock < 0 {
		return ErrValidation
	}
	return nil
}
