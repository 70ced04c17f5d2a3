package resend

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// 送信失敗した確認メールを積むキー。オペレーターが再送する
const queueKey = "notify:resend"

type RedisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

type entry struct {
	ID       string    `json:"id"`
	OrderID  int64     `json:"order_id"`
	Email    string    `json:"email"`
	FailedAt time.Time `json:"failed_at"`
}

func (q *RedisQueue) Push(ctx context.Context, orderID int64, email string) error {
	b, err := json.Marshal(entry{
		ID:       uuid.NewString(),
		OrderID:  orderID,
		Email:    email,
		FailedAt: time.Now(),
	})
	if err != nil {
		return err
	}

	return q.client.LPush(ctx, queueKey, b).Err()
}
