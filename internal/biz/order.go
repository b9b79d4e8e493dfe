package biz

import (
	"context"
	"fmt"
	"time"

	"xinyuan_tech/order-service/internal/conf"
	"xinyuan_tech/order-service/internal/constants"
	"xinyuan_tech/order-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/shopspring/decimal"
)

// Order 订单聚合根，订单独占其明细与支付记录
type Order struct {
	ID              uint64
	UserID          uint64 // 0 表示堂食/游客订单
	Status          string
	Lines           []*OrderLine
	Subtotal        decimal.Decimal
	Vat             decimal.Decimal
	ShippingFee     decimal.Decimal
	Discount        decimal.Decimal
	TotalPrice      decimal.Decimal
	PaymentMethod   string
	VoucherCode     string
	ShippingAddress string
	Payment         *Payment
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderLine 订单明细，单价为下单时刻的目录快照
type OrderLine struct {
	ID          uint64
	OrderID     uint64
	ProductID   uint64
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	Subtotal    decimal.Decimal
	Reviewable  bool
}

// Payment 支付记录
type Payment struct {
	ID                 uint64
	OrderID            uint64
	Kind               string
	Amount             decimal.Decimal
	Status             string
	PaymentDate        *time.Time
	PaymentInfo        string
	PaymentMessage     string
	ProviderOrderRef   string
	ProviderRequestID  string
	ProviderTransID    string
	ProviderResultCode int
	CreatedAt          time.Time
}

// Terminal 支付是否已处于终态（PAID / FAIL）
func (p *Payment) Terminal() bool {
	return p.Status == constants.PaymentStatusPaid || p.Status == constants.PaymentStatusFail
}

// TerminalOrderStatus 订单是否处于终态
func TerminalOrderStatus(status string) bool {
	switch status {
	case constants.OrderStatusConfirmed,
		constants.OrderStatusShipping,
		constants.OrderStatusDelivered,
		constants.OrderStatusCompleted,
		constants.OrderStatusCanceled:
		return true
	}
	return false
}

// CartLine 服务端持有的购物车行
type CartLine struct {
	ProductID uint64
	Quantity  int
}

// SubmittedItem 客户端提交的购买行
type SubmittedItem struct {
	ProductID uint64
	Quantity  int
}

// Product 目录商品只读视图
type Product struct {
	ID        uint64
	Name      string
	Price     decimal.Decimal
	Available bool
}

// CheckoutInput 下单入参
type CheckoutInput struct {
	Items           []SubmittedItem
	ShippingAddress string
	PaymentMethod   string
	VoucherCode     string
}

// CheckoutResult 下单结果，钱包支付时携带跳转地址
type CheckoutResult struct {
	Order  *Order
	PayURL string
}

// OrderRepo 订单仓库接口
type OrderRepo interface {
	Create(ctx context.Context, order *Order) error
	Get(ctx context.Context, orderID uint64) (*Order, error)
	ListByUser(ctx context.Context, userID uint64, page, pageSize int) ([]*Order, int, error)
	UpdateStatus(ctx context.Context, orderID uint64, status string) error
	UpdatePayment(ctx context.Context, p *Payment) error
	MarkLinesReviewable(ctx context.Context, orderID uint64) error
	ListStalePayments(ctx context.Context, olderThan time.Time) ([]*Payment, error)
}

// ProductRepo 目录只读接口
type ProductRepo interface {
	GetByIDs(ctx context.Context, ids []uint64) (map[uint64]*Product, error)
}

// CartRepo 购物车接口（购物车编辑由 cart 服务负责，这里只读和清空）
type CartRepo interface {
	GetCart(ctx context.Context, userID uint64) ([]*CartLine, error)
	ClearCart(ctx context.Context, userID uint64) error
}

// OrderUsecase 下单业务逻辑
type OrderUsecase struct {
	orderRepo   OrderRepo
	productRepo ProductRepo
	cartRepo    CartRepo
	vouchers    *VoucherUsecase
	payments    *PaymentOrchestrator
	tm          Transaction
	vatRate     decimal.Decimal
	codFee      decimal.Decimal
	log         *log.Helper
}

// NewOrderUsecase 创建下单业务逻辑
func NewOrderUsecase(
	c *conf.Bootstrap,
	orderRepo OrderRepo,
	productRepo ProductRepo,
	cartRepo CartRepo,
	vouchers *VoucherUsecase,
	payments *PaymentOrchestrator,
	tm Transaction,
	logger log.Logger,
) *OrderUsecase {
	vatRate, err := decimal.NewFromString(c.Order.VatRate)
	if err != nil {
		panic(fmt.Sprintf("invalid order.vat_rate %q: %v", c.Order.VatRate, err))
	}
	codFee, err := decimal.NewFromString(c.Order.CodShippingFee)
	if err != nil {
		panic(fmt.Sprintf("invalid order.cod_shipping_fee %q: %v", c.Order.CodShippingFee, err))
	}
	return &OrderUsecase{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		vouchers:    vouchers,
		payments:    payments,
		tm:          tm,
		vatRate:     vatRate,
		codFee:      codFee,
		log:         log.NewHelper(logger),
	}
}

// Checkout 将已校验的购物车转换为订单
// 购物车校验 -> 计价 -> 代金券核销 -> 支付编排在同一个事务内完成，
// 任何一步失败整体回滚，不留下孤儿支付记录或核销记录
func (uc *OrderUsecase) Checkout(ctx context.Context, userID uint64, in *CheckoutInput) (*CheckoutResult, error) {
	uc.log.Infof("Checkout: userID=%d, items=%d, method=%s, voucher=%q", userID, len(in.Items), in.PaymentMethod, in.VoucherCode)

	// 1. 购物车快照校验（无副作用）
	cart, err := uc.cartRepo.GetCart(ctx, userID)
	if err != nil {
		uc.log.Errorf("Failed to load cart for user %d: %v", userID, err)
		return nil, err
	}
	if err := validateCartSnapshot(cart, in.Items); err != nil {
		return nil, err
	}

	// 2. 从目录读取当前单价（不信任客户端价格）
	lines, err := uc.buildLines(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	// 3. 计价
	pricing := computePricing(lines, in.PaymentMethod, uc.vatRate, uc.codFee)

	var result *CheckoutResult
	err = uc.tm.Exec(ctx, func(ctx context.Context) error {
		// 4. 代金券校验与折扣计算
		discount := decimal.Zero
		var voucher *Voucher
		if in.VoucherCode != "" {
			voucher, discount, err = uc.vouchers.Apply(ctx, in.VoucherCode, userID, pricing.Subtotal)
			if err != nil {
				return err
			}
			if voucher.DiscountType == constants.VoucherTypeFreeShipping {
				pricing.ShippingFee = decimal.Zero
			}
		}

		order := &Order{
			UserID:          userID,
			Lines:           lines,
			Subtotal:        pricing.Subtotal,
			Vat:             pricing.Vat,
			ShippingFee:     pricing.ShippingFee,
			Discount:        discount,
			TotalPrice:      pricing.Subtotal.Add(pricing.Vat).Add(pricing.ShippingFee).Sub(discount),
			PaymentMethod:   in.PaymentMethod,
			VoucherCode:     in.VoucherCode,
			ShippingAddress: in.ShippingAddress,
		}

		// 5. 决定初始订单/支付状态，钱包金额区间在任何写入前校验
		if err := uc.payments.PreparePayment(order); err != nil {
			return err
		}

		if err := uc.orderRepo.Create(ctx, order); err != nil {
			uc.log.Errorf("Failed to create order: %v", err)
			return err
		}

		// 6. 核销代金券：条件自增 + 一条核销记录，与下单同事务
		if voucher != nil {
			if err := uc.vouchers.Redeem(ctx, voucher, userID, order.ID, discount); err != nil {
				return err
			}
		}

		// 7. 异步支付方式最后发起外部调用，失败时整个事务回滚
		payURL := ""
		if order.PaymentMethod == constants.PaymentMethodWallet {
			payURL, err = uc.payments.InitiateWallet(ctx, order)
			if err != nil {
				return err
			}
		}

		result = &CheckoutResult{Order: order, PayURL: payURL}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 事务提交后清空购物车，失败不影响已创建的订单
	if err := uc.cartRepo.ClearCart(ctx, userID); err != nil {
		uc.log.Warnf("Failed to clear cart for user %d after checkout: %v", userID, err)
	}

	uc.log.Infof("Checkout done: orderID=%d, status=%s, total=%s", result.Order.ID, result.Order.Status, result.Order.TotalPrice)
	return result, nil
}

// buildLines 根据目录现价构建订单明细
func (uc *OrderUsecase) buildLines(ctx context.Context, items []SubmittedItem) ([]*OrderLine, error) {
	ids := make([]uint64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := uc.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		uc.log.Errorf("Failed to load products: %v", err)
		return nil, err
	}

	lines := make([]*OrderLine, 0, len(items))
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok || !p.Available {
			return nil, errors.ProductUnavailable(fmt.Sprintf("product %d is not available", it.ProductID))
		}
		lines = append(lines, &OrderLine{
			ProductID:   p.ID,
			ProductName: p.Name,
			UnitPrice:   p.Price,
			Quantity:    it.Quantity,
			Subtotal:    p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
		})
	}
	return lines, nil
}

// GetOrder 查询订单（校验归属）
func (uc *OrderUsecase) GetOrder(ctx context.Context, orderID uint64) (*Order, error) {
	order, err := uc.orderRepo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.OrderNotFound(fmt.Sprintf("order %d not found", orderID))
	}
	return order, nil
}

// ListMyOrders 分页查询用户订单
func (uc *OrderUsecase) ListMyOrders(ctx context.Context, userID uint64, page, pageSize int) ([]*Order, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > constants.MaxPageSize {
		pageSize = constants.DefaultPageSize
	}
	return uc.orderRepo.ListByUser(ctx, userID, page, pageSize)
}

// CancelOrder 用户取消订单，仅允许非终态订单
func (uc *OrderUsecase) CancelOrder(ctx context.Context, orderID uint64) error {
	return uc.tm.Exec(ctx, func(ctx context.Context) error {
		order, err := uc.orderRepo.Get(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return errors.OrderNotFound(fmt.Sprintf("order %d not found", orderID))
		}
		if TerminalOrderStatus(order.Status) {
			return errors.OrderStateInvalid(fmt.Sprintf("order %d is already %s", orderID, order.Status))
		}

		if order.Payment != nil && !order.Payment.Terminal() {
			order.Payment.Status = constants.PaymentStatusFail
			order.Payment.PaymentMessage = "canceled by user"
			if err := uc.orderRepo.UpdatePayment(ctx, order.Payment); err != nil {
				return err
			}
		}
		return uc.orderRepo.UpdateStatus(ctx, orderID, constants.OrderStatusCanceled)
	})
}

// 管理端推进订单状态的合法迁移
var adminTransitions = map[string]string{
	constants.OrderStatusConfirmed: constants.OrderStatusShipping,
	constants.OrderStatusShipping:  constants.OrderStatusDelivered,
	constants.OrderStatusDelivered: constants.OrderStatusCompleted,
}

// AdvanceStatus 管理端推进订单状态 CONFIRMED -> SHIPPING -> DELIVERED -> COMPLETED
// 进入 DELIVERED 后订单明细开放评价
func (uc *OrderUsecase) AdvanceStatus(ctx context.Context, orderID uint64, next string) error {
	return uc.tm.Exec(ctx, func(ctx context.Context) error {
		order, err := uc.orderRepo.Get(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return errors.OrderNotFound(fmt.Sprintf("order %d not found", orderID))
		}
		if adminTransitions[order.Status] != next {
			return errors.OrderStateInvalid(fmt.Sprintf("cannot move order %d from %s to %s", orderID, order.Status, next))
		}
		if err := uc.orderRepo.UpdateStatus(ctx, orderID, next); err != nil {
			return err
		}
		if next == constants.OrderStatusDelivered {
			return uc.orderRepo.MarkLinesReviewable(ctx, orderID)
		}
		return nil
	})
}
