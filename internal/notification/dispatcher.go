package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bizapp/internal/domain/model"

	"go.uber.org/zap"
)

// メールを1通送る約束。実装はinfra/mail
type Mailer interface {
	Send(ctx context.Context, to string, subject string, body string) error
}

// 送信失敗した注文を再送用に積む約束。実装はinfra/resend
type ResendQueue interface {
	Push(ctx context.Context, orderID int64, email string) error
}

// 再送ポリシーは設定で変えられる
type Policy struct {
	//trueならレスポンスを待たせずgoroutineで送る
	Async bool
	//1以上。1なら再試行なし
	MaxAttempts int
	//再試行の間隔
	RetryWait time.Duration
}

// 注文確認メールの送信係。送信失敗は注文に影響しない
type Dispatcher struct {
	mailer Mailer
	queue  ResendQueue // nilならログだけ残す
	policy Policy
	logger *zap.Logger

	wg sync.WaitGroup
}

func NewDispatcher(mailer Mailer, queue ResendQueue, policy Policy, logger *zap.Logger) *Dispatcher {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Dispatcher{
		mailer: mailer,
		queue:  queue,
		policy: policy,
		logger: logger,
	}
}

// Dispatchはコミット済みの注文に対してだけ呼ぶ。
// 失敗してもロールバックはしない（ログと再送キューに残すだけ）
func (d *Dispatcher) Dispatch(order model.Order, customer model.Customer) {
	if d.policy.Async {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.send(context.Background(), order, customer)
		}()
		return
	}

	d.send(context.Background(), order, customer)
}

// 送信中のgoroutineを待つ（シャットダウン用）
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) send(ctx context.Context, order model.Order, customer model.Customer) {
	subject := "Order Confirmation"
	body := fmt.Sprintf("Your order %d has been received and is being processed.", order.ID)

	var err error
	for attempt := 1; attempt <= d.policy.MaxAttempts; attempt++ {
		err = d.mailer.Send(ctx, customer.Email, subject, body)
		if err == nil {
			return
		}
		if attempt < d.policy.MaxAttempts {
			time.Sleep(d.policy.RetryWait)
		}
	}

	d.logger.Warn("order confirmation failed",
		zap.Int64("order_id", order.ID),
		zap.String("email", customer.Email),
		zap.Error(err),
	)

	if d.queue == nil {
		return
	}
	if qerr := d.queue.Push(ctx, order.ID, customer.Email); qerr != nil {
		d.logger.Error("resend queue push failed",
			zap.Int64("order_id", order.ID),
			zap.Error(qerr),
		)
	}
}
