package notification_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"bizapp/internal/domain/model"
	"bizapp/internal/notification"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MailerMock struct{ mock.Mock }

func (m *MailerMock) Send(ctx context.Context, to string, subject string, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

type QueueMock struct{ mock.Mock }

func (m *QueueMock) Push(ctx context.Context, orderID int64, email string) error {
	args := m.Called(ctx, orderID, email)
	return args.Error(0)
}

func fixtures() (model.Order, model.Customer) {
	order := model.Order{ID: 7, CustomerID: 1, UserID: 9}
	customer := model.Customer{ID: 1, Name: "C1", Email: "c1@example.com"}
	return order, customer
}

// 成功したら1回で終わる。キューには積まない
func TestDispatcher_SendSuccess(t *testing.T) {
	order, customer := fixtures()
	mailer := new(MailerMock)
	queue := new(QueueMock)

	mailer.On("Send", mock.Anything, "c1@example.com", "Order Confirmation", mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, fmt.Sprintf("Your order %d has been received", order.ID))
	})).Return(nil)

	d := notification.NewDispatcher(mailer, queue, notification.Policy{
		Async:       false,
		MaxAttempts: 3,
		RetryWait:   0,
	}, zap.NewNop())

	d.Dispatch(order, customer)

	mailer.AssertNumberOfCalls(t, "Send", 1)
	queue.AssertNotCalled(t, "Push", mock.Anything, mock.Anything, mock.Anything)
}

// 全試行失敗 → 試行回数分送って再送キューに積む
func TestDispatcher_SendFailurePushesToResendQueue(t *testing.T) {
	order, customer := fixtures()
	mailer := new(MailerMock)
	queue := new(QueueMock)

	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp down"))
	queue.On("Push", mock.Anything, int64(7), "c1@example.com").Return(nil)

	d := notification.NewDispatcher(mailer, queue, notification.Policy{
		Async:       false,
		MaxAttempts: 3,
		RetryWait:   0,
	}, zap.NewNop())

	d.Dispatch(order, customer)

	mailer.AssertNumberOfCalls(t, "Send", 3)
	queue.AssertNumberOfCalls(t, "Push", 1)
}

// 2回目で成功したらそこで止まる
func TestDispatcher_RetryThenSuccess(t *testing.T) {
	order, customer := fixtures()
	mailer := new(MailerMock)
	queue := new(QueueMock)

	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp down")).Once()
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil)

	d := notification.NewDispatcher(mailer, queue, notification.Policy{
		Async:       false,
		MaxAttempts: 3,
		RetryWait:   0,
	}, zap.NewNop())

	d.Dispatch(order, customer)

	mailer.AssertNumberOfCalls(t, "Send", 2)
	queue.AssertNotCalled(t, "Push", mock.Anything, mock.Anything, mock.Anything)
}

// キューなし（nil）でも落ちない
func TestDispatcher_NoQueueJustLogs(t *testing.T) {
	order, customer := fixtures()
	mailer := new(MailerMock)

	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp down"))

	d := notification.NewDispatcher(mailer, nil, notification.Policy{
		Async:       false,
		MaxAttempts: 1,
		RetryWait:   0,
	}, zap.NewNop())

	d.Dispatch(order, customer)

	mailer.AssertNumberOfCalls(t, "Send", 1)
}

// 非同期モードはWaitで送信完了を待てる
func TestDispatcher_AsyncDispatch(t *testing.T) {
	order, customer := fixtures()
	mailer := new(MailerMock)

	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	d := notification.NewDispatcher(mailer, nil, notification.Policy{
		Async:       true,
		MaxAttempts: 1,
		RetryWait:   0,
	}, zap.NewNop())

	d.Dispatch(order, customer)
	d.Wait()

	mailer.AssertNumberOfCalls(t, "Send", 1)
}

// MaxAttempts 0は1に丸める
func TestDispatcher_MinimumOneAttempt(t *testing.T) {
	order, customer := fixtures()
	mailer := new(MailerMock)

	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	d := notification.NewDispatcher(mailer, nil, notification.Policy{
		Async:       false,
		MaxAttempts: 0,
		RetryWait:   0,
	}, zap.NewNop())

	d.Dispatch(order, customer)

	mailer.AssertNumberOfCalls(t, "Send", 1)
}
