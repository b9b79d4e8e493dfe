package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product 菜品模型（目录服务维护，本服务只读价格与可售状态）
type Product struct {
	ID        uint64          `gorm:"primaryKey;column:product_id"`
	Name      string          `gorm:"column:name"`
	Price     decimal.Decimal `gorm:"column:price;type:decimal(14,2)"`
	Available bool            `gorm:"column:available"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

func (Product) TableName() string { return "product" }
