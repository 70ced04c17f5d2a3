package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文。作成後は変更しない（キャンセル・編集フローなし）
type Order struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID int64           `gorm:"not null;index" json:"customer_id"`
	UserID     int64           `gorm:"not null;index" json:"user_id"`
	Total      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	CreatedAt  time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
