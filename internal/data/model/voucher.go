package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Voucher 代金券模型
// Code 统一存大写；UsageLimit 为 0 表示不限量
type Voucher struct {
	ID                uint64          `gorm:"primaryKey;column:voucher_id;autoIncrement"`
	Code              string          `gorm:"column:code;uniqueIndex"`
	DiscountType      string          `gorm:"column:discount_type"`
	DiscountValue     decimal.Decimal `gorm:"column:discount_value;type:decimal(14,2)"`
	MinOrderValue     decimal.Decimal `gorm:"column:min_order_value;type:decimal(14,2)"`
	MaxDiscountAmount decimal.Decimal `gorm:"column:max_discount_amount;type:decimal(14,2)"`
	UsageLimit        int             `gorm:"column:usage_limit"`
	UsedCount         int             `gorm:"column:used_count"`
	UsageLimitPerUser int             `gorm:"column:usage_limit_per_user"` // 0 表示不限
	StartDate         time.Time       `gorm:"column:start_date"`
	EndDate           time.Time       `gorm:"column:end_date;index"`
	Status            string          `gorm:"column:status;index"`
	IsPublic          bool            `gorm:"column:is_public"`
	CreatedAt         time.Time       `gorm:"column:created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at"`
}

func (Voucher) TableName() string { return "voucher" }

// VoucherUsage 代金券核销记录，只追加不修改
type VoucherUsage struct {
	ID             string          `gorm:"primaryKey;column:voucher_usage_id"`
	VoucherID      uint64          `gorm:"column:voucher_id;index:idx_voucher_user"`
	UserID         uint64          `gorm:"column:user_id;index:idx_voucher_user"`
	OrderID        uint64          `gorm:"column:order_id"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:decimal(14,2)"`
	UsedAt         time.Time       `gorm:"column:used_at"`
}

func (VoucherUsage) TableName() string { return "voucher_usage" }
