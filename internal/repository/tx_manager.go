package repository

import (
	"context"
	"errors"
)

// 直列化失敗やデッドロックをここに寄せる。呼び出し側はリトライ可能
var ErrTxConflict = errors.New("tx conflict")

// トランザクション内で使う約束
type TxRepos interface {
	Users() UserRepository
	Customers() CustomerRepository
	Products() ProductRepository
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	Inventory() InventoryRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
