package usecase

import (
	"errors"
	"fmt"
)

var (
	//400 入力不足
	ErrValidation = errors.New("validation error")
	//400 明細が空の注文
	ErrEmptyOrder = errors.New("empty order")
	//401 認証失敗
	ErrUnauthorized = errors.New("unauthorized")
	//403 権限
	ErrForbidden = errors.New("forbidden")
	//404 顧客・商品・ユーザー参照が不正
	ErrNotFound = errors.New("not found")
	//409 username/email重複
	ErrConflict = errors.New("conflict")
	//503 コミット競合。呼び出し側は全体をやり直してよい
	ErrPersistenceConflict = errors.New("persistence conflict")
	//500
	ErrInternal = errors.New("internal error")
)

// 在庫不足。どの商品が足りないかを持ち回る
type InsufficientStockError struct {
	ProductID int64
	Name      string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: product %d (%s) requested %d available %d",
		e.ProductID, e.Name, e.Requested, e.Available)
}

func AsInsufficientStock(err error) (*InsufficientStockError, bool) {
	var ise *InsufficientStockError
	ok := errors.As(err, &ise)
	return ise, ok
}
