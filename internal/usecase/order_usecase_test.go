package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"bizapp/internal/domain/model"
	repo "bizapp/internal/repository"
	"bizapp/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
	// fnが成功したあとのコミット失敗を再現する
	CommitErr error
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.Called(ctx)
	if err := fn(m.Repos); err != nil {
		return err
	}
	return m.CommitErr
}

type TxReposMock struct {
	users      repo.UserRepository
	customers  repo.CustomerRepository
	products   repo.ProductRepository
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	inventory  repo.InventoryRepository
}

func (r *TxReposMock) Users() repo.UserRepository           { return r.users }
func (r *TxReposMock) Customers() repo.CustomerRepository   { return r.customers }
func (r *TxReposMock) Products() repo.ProductRepository     { return r.products }
func (r *TxReposMock) Orders() repo.OrderRepository         { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *TxReposMock) Inventory() repo.InventoryRepository  { return r.inventory }

// =====================
// Repository mocks
// =====================

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	panic("not used in OrderUsecase tests")
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	panic("not used in OrderUsecase tests")
}

func (m *UserRepoMock) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	panic("not used in OrderUsecase tests")
}

func (m *UserRepoMock) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	panic("not used in OrderUsecase tests")
}

type CustomerRepoMock struct{ mock.Mock }

func (m *CustomerRepoMock) Create(ctx context.Context, c model.Customer) (model.Customer, error) {
	panic("not used in OrderUsecase tests")
}

func (m *CustomerRepoMock) FindByID(ctx context.Context, id int64) (model.Customer, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(model.Customer)
	return c, args.Error(1)
}

func (m *CustomerRepoMock) ListByAuthor(ctx context.Context, userID int64) ([]model.Customer, error) {
	panic("not used in OrderUsecase tests")
}

func (m *CustomerRepoMock) Update(ctx context.Context, c model.Customer) error {
	panic("not used in OrderUsecase tests")
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	panic("not used in OrderUsecase tests")
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	panic("not used in OrderUsecase tests")
}

func (m *ProductRepoMock) Update(ctx context.Context, p model.Product) error {
	panic("not used in OrderUsecase tests")
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

func (m *OrderItemRepoMock) SumByProduct(ctx context.Context, from *time.Time, to *time.Time) ([]repo.ProductSales, error) {
	panic("not used in OrderUsecase tests")
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, productID, qty)
	return args.Bool(0), args.Error(1)
}

// 通知は呼ばれた事実だけ記録する
type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) Dispatch(order model.Order, customer model.Customer) {
	m.Called(order, customer)
}

// =====================
// fixtures
// =====================

func newTxFixture() (*TxManagerMock, *UserRepoMock, *CustomerRepoMock, *ProductRepoMock, *OrderRepoMock, *OrderItemRepoMock, *InventoryRepoMock) {
	users := new(UserRepoMock)
	customers := new(CustomerRepoMock)
	products := new(ProductRepoMock)
	orders := new(OrderRepoMock)
	orderItems := new(OrderItemRepoMock)
	inventory := new(InventoryRepoMock)

	tx := &TxManagerMock{
		Repos: &TxReposMock{
			users:      users,
			customers:  customers,
			products:   products,
			orders:     orders,
			orderItems: orderItems,
			inventory:  inventory,
		},
	}
	return tx, users, customers, products, orders, orderItems, inventory
}

func price(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

// =====================
// PlaceOrder tests
// =====================

// 在庫5で3個注文 → 注文が作られて在庫が3減る
func TestOrderUsecase_PlaceOrder_Success(t *testing.T) {
	tx, users, customers, products, orders, orderItems, inventory := newTxFixture()
	notifier := new(NotifierMock)
	uc := usecase.NewOrderUsecase(tx, notifier)

	tx.On("WithinTx", mock.Anything).Return(nil)
	customers.On("FindByID", mock.Anything, int64(1)).
		Return(model.Customer{ID: 1, Name: "C1", Email: "c1@example.com", UserID: 9}, nil)
	users.On("FindByID", mock.Anything, int64(9)).
		Return(&model.User{ID: 9, Username: "staff"}, nil)
	products.On("FindByID", mock.Anything, int64(100)).
		Return(model.Product{ID: 100, Name: "P1", Price: price(10), Stock: 5}, nil)
	orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.CustomerID == 1 && o.UserID == 9 && o.Total.Equal(price(30))
	})).Return(int64(42), nil)
	orderItems.On("CreateBulk", mock.Anything, int64(42), mock.MatchedBy(func(items []model.OrderItem) bool {
		return len(items) == 1 &&
			items[0].ProductID == 100 &&
			items[0].Quantity == 3 &&
			items[0].UnitPrice.Equal(price(10))
	})).Return(nil)
	inventory.On("DecreaseStockIfEnough", mock.Anything, int64(100), int64(3)).Return(true, nil)
	notifier.On("Dispatch", mock.Anything, mock.Anything).Return()

	out, err := uc.PlaceOrder(context.Background(), usecase.PlaceOrderInput{
		CustomerID: 1,
		UserID:     9,
		Lines:      []usecase.OrderLine{{ProductID: 100, Quantity: 3}},
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(42), out.ID)
	assert.True(t, out.Total.Equal(price(30)))
	if assert.Len(t, out.Items, 1) {
		assert.Equal(t, int64(3), out.Items[0].Quantity)
		assert.True(t, out.Items[0].UnitPrice.Equal(price(10)))
	}

	inventory.AssertCalled(t, "DecreaseStockIfEnough", mock.Anything, int64(100), int64(3))
	notifier.AssertNumberOfCalls(t, "Dispatch", 1)
}

// 在庫2で3個注文 → InsufficientStock、注文は作られない
func TestOrderUsecase_PlaceOrder_InsufficientStock(t *testing.T) {
	tx, users, customers, products, orders, orderItems, inventory := newTxFixture()
	notifier := new(NotifierMock)
	uc := usecase.NewOrderUsecase(tx, notifier)

	tx.On("WithinTx", mock.Anything).Return(nil)
	customers.On("FindByID", mock.Anything, int64(1)).
		Return(model.Customer{ID: 1, Email: "c1@example.com"}, nil)
	users.On("FindByID", mock.Anything, int64(9)).
		Return(&model.User{ID: 9}, nil)
	products.On("FindByID", mock.Anything, int64(100)).
		Return(model.Product{ID: 100, Name: "P1", Price: price(10), Stock: 2}, nil)

	_, err := uc.PlaceOrder(context.Background(), usecase.PlaceOrderInput{
		CustomerID: 1,
		UserID:     9,
		Lines:      []usecase.OrderLine{{ProductID: 100, Quantity: 3}},
	})

	ise, ok := usecase.AsInsufficientStock(err)
	if assert.True(t, ok) {
		assert.Equal(t, int64(100), ise.ProductID)
		assert.Equal(t, int64(3), ise.Requested)
		assert.Equal(t, int64(2), ise.Available)
	}

	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	orderItems.AssertNotCalled(t, "CreateBulk", mock.Anything, mock.Anything, mock.Anything)
	inventory.AssertNotCalled(t, "DecreaseStockIfEnough", mock.Anything, mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

// 明細が空 → DBに触らずEmptyOrder
func TestOrderUsecase_PlaceOrder_EmptyOrder(t *testing.T) {
	tx, _, _, _, _, _, _ := newTxFixture()
	uc := usecase.NewOrderUsecase(tx, nil)

	_, err := uc.PlaceOrder(context.Background(), usecase.PlaceOrderInput{
		CustomerID: 1,
		UserID:     9,
		Lines:      []usecase.OrderLine{},
	})

	assert.ErrorIs(t, err, usecase.ErrEmptyOrder)
	tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

// 存在しない顧客 → NotFound、何も変わらない
func TestOrderUsecase_PlaceOrder_UnknownCustomer(t *testing.T) {
	tx, _, customers, _, orders, _, inventory := newTxFixture()
	uc := usecase.NewOrderUsecase(tx, nil)

	tx.On("WithinTx", mock.Anything).Return(nil)
	customers.On("FindByID", mock.Anything, int64(999)).
		Return(model.Customer{}, repo.ErrNotFound)

	_, err := uc.PlaceOrder(context.Background(), usecase.PlaceOrderInput{
		CustomerID: 999,
		UserID:     9,
		Lines:      []usecase.OrderLine{{ProductID: 100, Quantity: 1}},
	})

	assert.ErrorIs(t, err, usecase.ErrNotFound)
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	inventory.AssertNotCalled(t, "DecreaseStockIfEnough", mock.Anything, mock.Anything, mock.Anything)
}

// 存在しない商品 → NotFound
func TestOrderUsecase_PlaceOrder_UnknownProduct(t *testing.T) {
	tx, users, customers, products, orders, _, _ := newTxFixture()
	uc := usecase.NewOrderUsecase(tx, nil)

	tx.On("WithinTx", mock.Anything).Return(nil)
	customers.On("FindByID", mock.Anything, int64(1)).
		Return(model.Customer{ID: 1}, nil)
	users.On("FindByID", mock.Anything, int64(9)).
		Return(&model.User{ID: 9}, nil)
	products.On("FindByID", mock.Anything, int64(404)).
		Return(model.Product{}, repo.ErrNotFound)

	_, err := uc.PlaceOrder(context.Background(), usecase.PlaceOrderInput{
		CustomerID: 1,
		UserID:     9,
		Lines:      []usecase.OrderLine{{ProductID: 404, Quantity: 1}},
	})

	assert.ErrorIs(t, err, usecase.ErrNotFound)
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// 同じ商品が2行 → 数量をまとめて在庫チェックは1回
func TestOrderUsecase_PlaceOrder_DuplicateLinesMerged(t *testing.T) {
	tx, users, customers, products, orders, orderItems, inventory := newTxFixture()
	uc := usecase.NewOrderUsecase(tx, nil)

	tx.On("WithinTx", mock.Anything).Return(nil)
	customers.On("FindByID", mock.Anything, int64(1)).
		Return(model.Customer{ID: 1}, nil)
	users.On("FindByID", mock.Anything, int64(9)).
		Return(&model.User{ID: 9}, nil)
	products.On("FindByID", mock.Anything, int64(100)).
		Return(model.Product{ID: 100, Name: "P1", Price: price(10), Stock: 5}, nil)
	orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.Total.Equal(price(50))
	})).Return(int64(7), nil)
	orderItems.On("CreateBulk", mock.Anything, int64(7), mock.MatchedBy(func(items []model.OrderItem) bool {
		return len(items) == 1 && items[0].Quantity == 5
	})).Return(nil)
	inventory.On("DecreaseStockIfEnough", mock.Anything, int64(100), int64(5)).Return(true, nil)

	out, err := uc.PlaceOrder(context.Background(), usecase.PlaceOrderInput{
		CustomerID: 1,
		UserID:     9,
		Lines: []usecase.OrderLine{
			{ProductID: 100, Quantity: 2},
			{ProductID: 100, Quantity: 3},
		},
	})

	assert.NoError(t, err)
	assert.Len(t, out.Items, 1)
	products.AssertNumberOfCalls(t, "FindByID", 1)
	inventory.AssertNumberOfCalls(t, "DecreaseStockIfEnough", 1)
}

// 数量0以下はバリデーションで弾く
func TestOrderUsecase_PlaceOrder_NonPositiveQuantity(t *testing.T) {
	tx, _, _, _, _, _, _ := newTxFixture()
	uc := usecase.NewOrderUsecase(tx, nil)

	_, err := uc.PlaceOrder(context.Background(), usecase.PlaceOrderInput{
		CustomerID: 1,
		UserID:     9,
		Lines:      []usecase.OrderLine{{ProductID: 100, Quantity: 0}},
	})

	assert.ErrorIs(t, err, usecase.ErrValidation)
	tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

// チェック後に並行注文が先に在庫を取った → InsufficientStock
func TestOrderUsecase_PlaceOrder_ConcurrentDecrementLoses(t *testing.T) {
	tx, users, customers, products, orders, orderItems, inventory := newTxFixture()
	uc := usecase.NewOrderUsecase(tx, nil)

	tx.On("WithinTx", mock.Anything).Return(nil)
	customers.On("FindByID", mock.Anything, int64(1)).
		Return(model.Customer{ID: 1}, nil)
	users.On("FindByID", mock.Anything, int64(9)).
		Return(&model.User{ID: 9}, nil)
	//1回目の読みでは在庫あり、減算は失敗、読み直すと在庫1
	products.On("FindByID", mock.Anything, int64(100)).
		Return(model.Product{ID: 100, Name: "P1", Price: price(10), Stock: 3}, nil).Once()
	orders.On("Create", mock.Anything, mock.Anything).Return(int64(7), nil)
	orderItems.On("CreateBulk", mock.Anything, int64(7), mock.Anything).Return(nil)
	inventory.On("DecreaseStockIfEnough", mock.Anything, int64(100), int64(3)).Return(false, nil)
	products.On("FindByID", mock.Anything, int64(100)).
		Return(model.Product{ID: 100, Name: "P1", Price: price(10), Stock: 1}, nil)

	_, err := uc.PlaceOrder(context.Background(), usecase.PlaceOrderInput{
		CustomerID: 1,
		UserID:     9,
		Lines:      []usecase.OrderLine{{ProductID: 100, Quantity: 3}},
	})

	ise, ok := usecase.AsInsufficientStock(err)
	if assert.True(t, ok) {
		assert.Equal(t, int64(3), ise.Requested)
		assert.Equal(t, int64(1), ise.Available)
	}
}

// コミット競合 → PersistenceConflict（やり直せる）
func TestOrderUsecase_PlaceOrder_CommitConflict(t *testing.T) {
	tx, users, customers, products, orders, orderItems, inventory := newTxFixture()
	tx.CommitErr = repo.ErrTxConflict
	notifier := new(NotifierMock)
	uc := usecase.NewOrderUsecase(tx, notifier)

	tx.On("WithinTx", mock.Anything).Return(nil)
	customers.On("FindByID", mock.Anything, int64(1)).
		Return(model.Customer{ID: 1}, nil)
	users.On("FindByID", mock.Anything, int64(9)).
		Return(&model.User{ID: 9}, nil)
	products.On("FindByID", mock.Anything, int64(100)).
		Return(model.Product{ID: 100, Price: price(10), Stock: 5}, nil)
	orders.On("Create", mock.Anything, mock.Anything).Return(int64(7), nil)
	orderItems.On("CreateBulk", mock.Anything, int64(7), mock.Anything).Return(nil)
	inventory.On("DecreaseStockIfEnough", mock.Anything, int64(100), int64(1)).Return(true, nil)

	_, err := uc.PlaceOrder(context.Background(), usecase.PlaceOrderInput{
		CustomerID: 1,
		UserID:     9,
		Lines:      []usecase.OrderLine{{ProductID: 100, Quantity: 1}},
	})

	assert.ErrorIs(t, err, usecase.ErrPersistenceConflict)
	//コミットできていないので通知はしない
	notifier.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

// =====================
// ListOrders / GetOrderDetail tests
// =====================

func TestOrderUsecase_GetOrderDetail_NotFound(t *testing.T) {
	tx, _, _, _, orders, _, _ := newTxFixture()
	uc := usecase.NewOrderUsecase(tx, nil)

	tx.On("WithinTx", mock.Anything).Return(nil)
	orders.On("FindByID", mock.Anything, int64(5)).
		Return(model.Order{}, repo.ErrNotFound)

	_, err := uc.GetOrderDetail(context.Background(), 5)
	assert.ErrorIs(t, err, usecase.ErrNotFound)
}

func TestOrderUsecase_ListOrders(t *testing.T) {
	tx, _, _, _, orders, orderItems, _ := newTxFixture()
	uc := usecase.NewOrderUsecase(tx, nil)

	tx.On("WithinTx", mock.Anything).Return(nil)
	orders.On("List", mock.Anything, mock.Anything).
		Return([]model.Order{{ID: 1, CustomerID: 2, UserID: 3, Total: price(10)}}, int64(1), nil)
	orderItems.On("ListByOrderID", mock.Anything, int64(1)).
		Return([]model.OrderItem{{OrderID: 1, ProductID: 100, Quantity: 1, UnitPrice: price(10)}}, nil)

	outs, err := uc.ListOrders(context.Background(), repo.OrderListFilter{Page: 1, Limit: 50})
	assert.NoError(t, err)
	if assert.Len(t, outs, 1) {
		assert.Equal(t, int64(1), outs[0].ID)
		assert.Len(t, outs[0].Items, 1)
	}
}

// 内部エラーはそのまま上に返る（タクソノミ外は500扱い）
func TestOrderUsecase_PlaceOrder_RepoError(t *testing.T) {
	tx, _, customers, _, _, _, _ := newTxFixture()
	uc := usecase.NewOrderUsecase(tx, nil)

	dbErr := errors.New("db down")
	tx.On("WithinTx", mock.Anything).Return(nil)
	customers.On("FindByID", mock.Anything, int64(1)).
		Return(model.Customer{}, dbErr)

	_, err := uc.PlaceOrder(context.Background(), usecase.PlaceOrderInput{
		CustomerID: 1,
		UserID:     9,
		Lines:      []usecase.OrderLine{{ProductID: 100, Quantity: 1}},
	})

	assert.ErrorIs(t, err, dbErr)
}
