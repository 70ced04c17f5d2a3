package usecase

import (
	"context"
	"errors"
	"time"

	"bizapp/internal/domain/model"
	repo "bizapp/internal/repository"

	"github.com/shopspring/decimal"
)

// コミット後の通知の約束。実装はnotification.Dispatcher
type ConfirmationDispatcher interface {
	Dispatch(order model.Order, customer model.Customer)
}

type OrderUsecase struct {
	tx       repo.TransactionManager
	notifier ConfirmationDispatcher
}

func NewOrderUsecase(tx repo.TransactionManager, notifier ConfirmationDispatcher) *OrderUsecase {
	return &OrderUsecase{tx: tx, notifier: notifier}
}

type OrderLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type PlaceOrderInput struct {
	CustomerID int64
	UserID     int64
	Lines      []OrderLine
}

type OrderItemOutput struct {
	ProductID int64           `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderOutput struct {
	ID         int64             `json:"id"`
	CustomerID int64             `json:"customer_id"`
	UserID     int64             `json:"user_id"`
	Total      decimal.Decimal   `json:"total"`
	CreatedAt  time.Time         `json:"created_at"`
	Items      []OrderItemOutput `json:"items"`
}

// PlaceOrderは注文確定の本体。
// 全部成功するか、何も残らないかのどちらかにする
func (u *OrderUsecase) PlaceOrder(ctx context.Context, in PlaceOrderInput) (OrderOutput, error) {
	if in.UserID <= 0 {
		return OrderOutput{}, ErrUnauthorized
	}

	//空注文はDBに触る前に弾く
	if len(in.Lines) == 0 {
		return OrderOutput{}, ErrEmptyOrder
	}

	//同じ商品が複数行に出てきたら数量をまとめる
	lines, err := mergeLines(in.Lines)
	if err != nil {
		return OrderOutput{}, err
	}

	if in.CustomerID <= 0 {
		return OrderOutput{}, ErrNotFound
	}

	var (
		customer model.Customer
		created  model.Order
		items    []model.OrderItem
	)

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//参照先の存在チェック
		c, err := r.Customers().FindByID(ctx, in.CustomerID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		customer = c

		if _, err := r.Users().FindByID(ctx, in.UserID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}

		//在庫はトランザクション内で読み直す（古い読みで判断しない）
		total := decimal.Zero
		items = make([]model.OrderItem, 0, len(lines))

		for _, ln := range lines {
			p, err := r.Products().FindByID(ctx, ln.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return ErrNotFound
			}
			if err != nil {
				return err
			}

			if p.Stock < ln.Quantity {
				return &InsufficientStockError{
					ProductID: p.ID,
					Name:      p.Name,
					Requested: ln.Quantity,
					Available: p.Stock,
				}
			}

			//単価は注文時点のスナップショット
			items = append(items, model.OrderItem{
				ProductID: p.ID,
				Quantity:  ln.Quantity,
				UnitPrice: p.Price,
			})
			total = total.Add(p.Price.Mul(decimal.NewFromInt(ln.Quantity)))
		}

		now := time.Now()
		orderID, err := r.Orders().Create(ctx, model.Order{
			CustomerID: in.CustomerID,
			UserID:     in.UserID,
			Total:      total,
			CreatedAt:  now,
		})
		if err != nil {
			return err
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, items); err != nil {
			return err
		}

		//在庫減算。条件付きUPDATEなので負にはならない
		for _, ln := range lines {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, ln.ProductID, ln.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				//チェック後に並行トランザクションが先に減らしたケース
				p, perr := r.Products().FindByID(ctx, ln.ProductID)
				if perr != nil {
					return perr
				}
				return &InsufficientStockError{
					ProductID: ln.ProductID,
					Name:      p.Name,
					Requested: ln.Quantity,
					Available: p.Stock,
				}
			}
		}

		created = model.Order{
			ID:         orderID,
			CustomerID: in.CustomerID,
			UserID:     in.UserID,
			Total:      total,
			CreatedAt:  now,
		}
		for i := range items {
			items[i].OrderID = orderID
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, repo.ErrTxConflict) {
			return OrderOutput{}, ErrPersistenceConflict
		}
		return OrderOutput{}, err
	}

	//コミット後の確認メール。失敗しても注文は有効のまま
	if u.notifier != nil {
		u.notifier.Dispatch(created, customer)
	}

	return toOrderOutput(created, items), nil
}

func (u *OrderUsecase) ListOrders(ctx context.Context, f repo.OrderListFilter) ([]OrderOutput, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 50
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().List(ctx, f)
		if err != nil {
			return err
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return err
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetOrderDetail(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, ErrNotFound
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 重複商品は1行にまとめて在庫チェックも1回にする。
// 数量0以下はここで弾く
func mergeLines(lines []OrderLine) ([]OrderLine, error) {
	merged := make([]OrderLine, 0, len(lines))
	index := make(map[int64]int, len(lines))

	for _, ln := range lines {
		if ln.ProductID <= 0 {
			return nil, ErrNotFound
		}
		if ln.Quantity <= 0 {
			return nil, ErrValidation
		}

		if i, ok := index[ln.ProductID]; ok {
			merged[i].Quantity += ln.Quantity
			continue
		}
		index[ln.ProductID] = len(merged)
		merged = append(merged, ln)
	}

	return merged, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	return OrderOutput{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		UserID:     o.UserID,
		Total:      o.Total,
		CreatedAt:  o.CreatedAt,
		Items:      outItems,
	}
}
