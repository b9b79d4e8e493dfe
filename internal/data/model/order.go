package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order 订单模型
type Order struct {
	ID              uint64          `gorm:"primaryKey;column:order_id;autoIncrement"`
	UserID          uint64          `gorm:"column:user_id;index"` // 0 表示堂食/游客订单
	Status          string          `gorm:"column:status;index"`
	Subtotal        decimal.Decimal `gorm:"column:subtotal;type:decimal(14,2)"`
	Vat             decimal.Decimal `gorm:"column:vat;type:decimal(14,2)"`
	ShippingFee     decimal.Decimal `gorm:"column:shipping_fee;type:decimal(14,2)"`
	Discount        decimal.Decimal `gorm:"column:discount;type:decimal(14,2)"`
	TotalPrice      decimal.Decimal `gorm:"column:total_price;type:decimal(14,2)"`
	PaymentMethod   string          `gorm:"column:payment_method"`
	VoucherCode     string          `gorm:"column:voucher_code"`
	ShippingAddress string          `gorm:"column:shipping_address"`
	CreatedAt       time.Time       `gorm:"column:created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at"`
}

func (Order) TableName() string { return "orders" }

// OrderLine 订单明细，下单时快照商品单价，之后除评价标记外不再变更
type OrderLine struct {
	ID          uint64          `gorm:"primaryKey;column:order_line_id;autoIncrement"`
	OrderID     uint64          `gorm:"column:order_id;index"`
	ProductID   uint64          `gorm:"column:product_id"`
	ProductName string          `gorm:"column:product_name"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:decimal(14,2)"`
	Quantity    int             `gorm:"column:quantity"`
	Subtotal    decimal.Decimal `gorm:"column:subtotal;type:decimal(14,2)"`
	Reviewable  bool            `gorm:"column:reviewable;default:false"`
}

func (OrderLine) TableName() string { return "order_line" }

// Payment 支付模型
// Kind 区分 cash / wallet，供应商相关字段仅 wallet 使用
type Payment struct {
	ID                 uint64          `gorm:"primaryKey;column:payment_id;autoIncrement"`
	OrderID            uint64          `gorm:"column:order_id;uniqueIndex"`
	Kind               string          `gorm:"column:kind"`
	Amount             decimal.Decimal `gorm:"column:amount;type:decimal(14,2)"`
	Status             string          `gorm:"column:status;index"`
	PaymentDate        *time.Time      `gorm:"column:payment_date"`
	PaymentInfo        string          `gorm:"column:payment_info"`
	PaymentMessage     string          `gorm:"column:payment_message"`
	ProviderOrderRef   string          `gorm:"column:provider_order_ref;index"`
	ProviderRequestID  string          `gorm:"column:provider_request_id"`
	ProviderTransID    string          `gorm:"column:provider_trans_id"`
	ProviderResultCode int             `gorm:"column:provider_result_code"`
	CreatedAt          time.Time       `gorm:"column:created_at"`
	UpdatedAt          time.Time       `gorm:"column:updated_at"`
}

func (Payment) TableName() string { return "payment" }
