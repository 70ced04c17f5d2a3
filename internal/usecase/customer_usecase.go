package usecase

import (
	"context"
	"errors"
	"strings"

	"bizapp/internal/domain/model"
	repo "bizapp/internal/repository"
)

type CustomerUsecase struct {
	customers repo.CustomerRepository
}

func NewCustomerUsecase(customers repo.CustomerRepository) *CustomerUsecase {
	return &CustomerUsecase{customers: customers}
}

type CustomerInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (u *CustomerUsecase) Create(ctx context.Context, userID int64, in CustomerInput) (model.Customer, error) {
	if userID <= 0 {
		return model.Customer{}, ErrUnauthorized
	}
	if err := validateCustomerInput(in); err != nil {
		return model.Customer{}, err
	}

	c, err := u.customers.Create(ctx, model.Customer{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Phone:   strings.TrimSpace(in.Phone),
		Address: strings.TrimSpace(in.Address),
		UserID:  userID,
	})
	if err != nil {
		return model.Customer{}, err
	}
	return c, nil
}

// authorだけが編集できる
func (u *CustomerUsecase) Update(ctx context.Context, userID int64, customerID int64, in CustomerInput) (model.Customer, error) {
	if userID <= 0 {
		return model.Customer{}, ErrUnauthorized
	}
	if customerID <= 0 {
		return model.Customer{}, ErrNotFound
	}
	if err := validateCustomerInput(in); err != nil {
		return model.Customer{}, err
	}

	c, err := u.customers.FindByID(ctx, customerID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Customer{}, ErrNotFound
	}
	if err != nil {
		return model.Customer{}, err
	}

	//所有チェック（他人の顧客なら403）
	if c.UserID != userID {
		return model.Customer{}, ErrForbidden
	}

	c.Name = strings.TrimSpace(in.Name)
	c.Email = strings.TrimSpace(in.Email)
	c.Phone = strings.TrimSpace(in.Phone)
	c.Address = strings.TrimSpace(in.Address)

	if err := u.customers.Update(ctx, c); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Customer{}, ErrNotFound
		}
		return model.Customer{}, err
	}
	return c, nil
}

func (u *CustomerUsecase) Get(ctx context.Context, customerID int64) (model.Customer, error) {
	if customerID <= 0 {
		return model.Customer{}, ErrNotFound
	}

	c, err := u.customers.FindByID(ctx, customerID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Customer{}, ErrNotFound
	}
	if err != nil {
		return model.Customer{}, err
	}
	return c, nil
}

// ダッシュボード用。自分がauthorの顧客だけ
func (u *CustomerUsecase) ListMine(ctx context.Context, userID int64) ([]model.Customer, error) {
	if userID <= 0 {
		return []model.Customer{}, ErrUnauthorized
	}

	items, err := u.customers.ListByAuthor(ctx, userID)
	if err != nil {
		return []model.Customer{}, err
	}
	return items, nil
}

func validateCustomerInput(in CustomerInput) error {
	name := strings.TrimSpace(in.Name)
	if len(name) < 2 || len(name) > 100 {
		return ErrValidation
	}
	if !isEmailLike(strings.TrimSpace(in.Email)) {
		return ErrValidation
	}
	phone := strings.TrimSpace(in.Phone)
	if len(phone) < 10 || len(phone) > 20 {
		return ErrValidation
	}
	address := strings.TrimSpace(in.Address)
	if len(address) < 10 || len(address) > 200 {
		return ErrValidation
	}
	return nil
}
