package biz

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"xinyuan_tech/order-service/internal/conf"
	"xinyuan_tech/order-service/internal/constants"
	"xinyuan_tech/order-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redsync/redsync/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletCreateRequest 发往钱包供应商的创建支付请求
type WalletCreateRequest struct {
	OrderRef  string
	RequestID string
	Amount    int64 // 供应商货币最小单位
	OrderInfo string
}

// WalletCreateResult 供应商同步响应
type WalletCreateResult struct {
	PayURL     string
	ResultCode int
	Message    string
}

// WalletNotification 供应商 IPN 回调（字段为供应商回显值，签名校验只使用回调自身字段）
type WalletNotification struct {
	PartnerCode  string
	OrderRef     string
	RequestID    string
	Amount       int64
	OrderInfo    string
	OrderType    string
	TransID      int64
	ResultCode   int
	Message      string
	PayType      string
	ResponseTime int64
	ExtraData    string
	Signature    string
}

// WalletClient 钱包供应商客户端接口（防腐层）
type WalletClient interface {
	CreatePayment(ctx context.Context, req *WalletCreateRequest) (*WalletCreateResult, error)
	// VerifyNotification 用回调自身字段重算签名并比对
	VerifyNotification(n *WalletNotification) bool
}

// PaymentOrchestrator 支付编排：同步现金流与异步钱包流，以及 IPN 对账
type PaymentOrchestrator struct {
	orderRepo    OrderRepo
	wallet       WalletClient
	tm           Transaction
	rs           *redsync.Redsync
	minAmount    int64
	maxAmount    int64
	exchangeRate decimal.Decimal
	log          *log.Helper
}

// NewPaymentOrchestrator 创建支付编排
func NewPaymentOrchestrator(
	c *conf.Bootstrap,
	orderRepo OrderRepo,
	wallet WalletClient,
	tm Transaction,
	rs *redsync.Redsync,
	logger log.Logger,
) *PaymentOrchestrator {
	rate := decimal.NewFromInt(1)
	if c.Client.Wallet.ExchangeRate != "" {
		parsed, err := decimal.NewFromString(c.Client.Wallet.ExchangeRate)
		if err != nil {
			panic(fmt.Sprintf("invalid client.wallet.exchange_rate %q: %v", c.Client.Wallet.ExchangeRate, err))
		}
		rate = parsed
	}
	return &PaymentOrchestrator{
		orderRepo:    orderRepo,
		wallet:       wallet,
		tm:           tm,
		rs:           rs,
		minAmount:    c.Client.Wallet.MinAmount,
		maxAmount:    c.Client.Wallet.MaxAmount,
		exchangeRate: rate,
		log:          log.NewHelper(logger),
	}
}

// PreparePayment 根据支付方式决定订单与支付的初始状态
// 现金：支付直接 PAID，订单 PENDING -> CONFIRMED（创建即终态）
// 钱包：支付 PROCESSING，订单 PENDING -> WAITING_FOR_PAYMENT，金额区间在任何写入前校验
func (po *PaymentOrchestrator) PreparePayment(order *Order) error {
	switch order.PaymentMethod {
	case constants.PaymentMethodCOD:
		now := time.Now().UTC()
		order.Status = constants.OrderStatusConfirmed
		order.Payment = &Payment{
			Kind:        constants.PaymentKindCash,
			Amount:      order.TotalPrice,
			Status:      constants.PaymentStatusPaid,
			PaymentDate: &now,
			PaymentInfo: "cash on delivery",
		}
		return nil
	case constants.PaymentMethodWallet:
		minor := po.toMinorUnits(order.TotalPrice)
		if po.maxAmount > 0 && minor > po.maxAmount {
			return errors.AmountOutOfRange(fmt.Sprintf("amount %d exceeds provider maximum %d", minor, po.maxAmount))
		}
		order.Status = constants.OrderStatusWaitingForPayment
		order.Payment = &Payment{
			Kind:   constants.PaymentKindWallet,
			Amount: order.TotalPrice,
			Status: constants.PaymentStatusProcessing,
		}
		return nil
	}
	return errors.PaymentInitiationFailed(fmt.Sprintf("unsupported payment method %q", order.PaymentMethod))
}

// InitiateWallet 构造签名请求调用供应商，返回跳转地址
// 供应商返回非 0 结果码或调用超时均视为发起失败，由调用方回滚本次下单
func (po *PaymentOrchestrator) InitiateWallet(ctx context.Context, order *Order) (string, error) {
	amount := po.toMinorUnits(order.TotalPrice)
	// 低于供应商下限的金额向上补齐
	if po.minAmount > 0 && amount < po.minAmount {
		po.log.Infof("Clamping wallet amount %d up to provider minimum %d for order %d", amount, po.minAmount, order.ID)
		amount = po.minAmount
	}
	if po.maxAmount > 0 && amount > po.maxAmount {
		return "", errors.AmountOutOfRange(fmt.Sprintf("amount %d exceeds provider maximum %d", amount, po.maxAmount))
	}

	req := &WalletCreateRequest{
		// 订单号追加唯一后缀，容忍供应商侧对同一订单的重试
		OrderRef:  NewOrderRef(order.ID),
		RequestID: uuid.New().String(),
		Amount:    amount,
		OrderInfo: fmt.Sprintf("Restaurant order #%d", order.ID),
	}

	res, err := po.wallet.CreatePayment(ctx, req)
	if err != nil {
		po.log.Errorf("Wallet create payment failed for order %d: %v", order.ID, err)
		return "", errors.PaymentInitiationFailed("wallet provider unreachable")
	}
	if res.ResultCode != constants.WalletResultCodeSuccess {
		po.log.Errorf("Wallet rejected payment for order %d: code=%d, message=%s", order.ID, res.ResultCode, res.Message)
		return "", errors.PaymentInitiationFailed(fmt.Sprintf("wallet provider rejected the payment: %s", res.Message))
	}

	order.Payment.ProviderOrderRef = req.OrderRef
	order.Payment.ProviderRequestID = req.RequestID
	if err := po.orderRepo.UpdatePayment(ctx, order.Payment); err != nil {
		return "", err
	}

	po.log.Infof("Wallet payment initiated: orderID=%d, ref=%s", order.ID, req.OrderRef)
	return res.PayURL, nil
}

// Reconcile 处理供应商 IPN 回调，严格按序：验签 -> 解析订单 -> 幂等检查 -> 状态迁移
// 同一回调重复投递时第二次为空操作，直接返回成功
func (po *PaymentOrchestrator) Reconcile(ctx context.Context, n *WalletNotification) error {
	// 1. 用回调自身字段重算签名，不读取本地状态
	if !po.wallet.VerifyNotification(n) {
		// 与普通失败区分记录，疑似篡改
		po.log.Warnf("IPN signature mismatch: orderRef=%s, requestID=%s, possible tampering", n.OrderRef, n.RequestID)
		return errors.SignatureMismatch("notification signature does not match")
	}

	// 2. 去掉唯一后缀还原内部订单号
	orderID, err := ParseOrderRef(n.OrderRef)
	if err != nil {
		po.log.Errorf("IPN references unresolvable order ref %q: %v", n.OrderRef, err)
		return errors.OrderNotFound(fmt.Sprintf("order ref %q does not resolve", n.OrderRef))
	}

	// 按订单加锁，避免并发重复投递同时进入；锁不可用时退化为数据库幂等检查
	if po.rs != nil {
		mutex := po.rs.NewMutex(
			constants.IPNLockKeyPrefix+strconv.FormatUint(orderID, 10),
			redsync.WithExpiry(constants.IPNLockExpiration),
			redsync.WithTries(constants.IPNLockRetries),
		)
		if err := mutex.LockContext(ctx); err == nil {
			defer func() {
				if _, err := mutex.UnlockContext(ctx); err != nil {
					po.log.Warnf("Failed to unlock IPN mutex for order %d: %v", orderID, err)
				}
			}()
		} else {
			po.log.Warnf("Failed to acquire IPN lock for order %d, relying on terminal-state check: %v", orderID, err)
		}
	}

	return po.tm.Exec(ctx, func(ctx context.Context) error {
		order, err := po.orderRepo.Get(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil || order.Payment == nil {
			return errors.OrderNotFound(fmt.Sprintf("order %d not found", orderID))
		}

		// 3. 幂等：支付已终态则不再写任何东西
		if order.Payment.Terminal() {
			po.log.Infof("IPN for order %d ignored, payment already %s (idempotent)", orderID, order.Payment.Status)
			return nil
		}

		p := order.Payment
		p.ProviderResultCode = n.ResultCode
		p.PaymentMessage = n.Message
		var nextOrderStatus string
		if n.ResultCode == constants.WalletResultCodeSuccess {
			now := time.Now().UTC()
			p.Status = constants.PaymentStatusPaid
			p.PaymentDate = &now
			p.ProviderTransID = strconv.FormatInt(n.TransID, 10)
			nextOrderStatus = constants.OrderStatusConfirmed
		} else {
			p.Status = constants.PaymentStatusFail
			nextOrderStatus = constants.OrderStatusCanceled
		}

		if err := po.orderRepo.UpdatePayment(ctx, p); err != nil {
			return err
		}
		if err := po.orderRepo.UpdateStatus(ctx, orderID, nextOrderStatus); err != nil {
			return err
		}

		po.log.Infof("IPN reconciled: orderID=%d, payment=%s, order=%s", orderID, p.Status, nextOrderStatus)
		return nil
	})
}

// ReportStalePayments 列出长时间处于 PROCESSING 的支付记录供人工对账
func (po *PaymentOrchestrator) ReportStalePayments(ctx context.Context, olderThan time.Duration) ([]*Payment, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	payments, err := po.orderRepo.ListStalePayments(ctx, cutoff)
	if err != nil {
		po.log.Errorf("Failed to list stale payments: %v", err)
		return nil, err
	}
	for _, p := range payments {
		po.log.Warnf("Stale payment needs manual reconciliation: paymentID=%d, orderID=%d, ref=%s, createdAt=%s",
			p.ID, p.OrderID, p.ProviderOrderRef, p.CreatedAt.Format(time.RFC3339))
	}
	return payments, nil
}

// toMinorUnits 本地金额按固定汇率转换为供应商货币最小单位
func (po *PaymentOrchestrator) toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(po.exchangeRate).Round(0).IntPart()
}

// NewOrderRef 生成供应商订单号：内部订单号 + 唯一后缀
func NewOrderRef(orderID uint64) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	return fmt.Sprintf("%d-%s", orderID, suffix)
}

// ParseOrderRef 去掉唯一后缀还原内部订单号
func ParseOrderRef(ref string) (uint64, error) {
	idx := strings.Index(ref, "-")
	if idx <= 0 {
		return 0, fmt.Errorf("malformed order ref %q", ref)
	}
	id, err := strconv.ParseUint(ref[:idx], 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("malformed order ref %q", ref)
	}
	return id, nil
}
