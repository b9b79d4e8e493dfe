package constants

import "time"

// 订单状态
// PENDING 和 WAITING_FOR_PAYMENT 是仅有的非终态，其余状态均为终态
const (
	OrderStatusPending           = "PENDING"
	OrderStatusWaitingForPayment = "WAITING_FOR_PAYMENT"
	OrderStatusConfirmed         = "CONFIRMED"
	OrderStatusShipping          = "SHIPPING"
	OrderStatusDelivered         = "DELIVERED"
	OrderStatusCompleted         = "COMPLETED"
	OrderStatusCanceled          = "CANCELED"
)

// 支付状态
const (
	PaymentStatusProcessing = "PROCESSING"
	PaymentStatusPaid       = "PAID"
	PaymentStatusFail       = "FAIL"
)

// 支付方式
const (
	// PaymentMethodCOD 货到付款（同步，下单即完成支付）
	PaymentMethodCOD = "COD"
	// PaymentMethodWallet 外部钱包（异步，等待 IPN 回调）
	PaymentMethodWallet = "WALLET"
)

// 支付类型(与 Payment.Kind 保持一致)
const (
	PaymentKindCash   = "cash"
	PaymentKindWallet = "wallet"
)

// 代金券状态
const (
	VoucherStatusActive   = "ACTIVE"
	VoucherStatusInactive = "INACTIVE"
	VoucherStatusExpired  = "EXPIRED"
)

// 代金券折扣类型
const (
	VoucherTypePercentage   = "PERCENTAGE"
	VoucherTypeFixedAmount  = "FIXED_AMOUNT"
	VoucherTypeFreeShipping = "FREE_SHIPPING"
)

// 分页相关常量
const (
	// DefaultPageSize 默认分页大小
	DefaultPageSize = 10
	// MaxPageSize 最大分页大小
	MaxPageSize = 100
)

// 分布式锁相关常量
const (
	// IPNLockKeyPrefix IPN 回调对账锁前缀（按订单加锁）
	IPNLockKeyPrefix = "order_ipn_lock:order:"
	// IPNLockExpiration IPN 回调对账锁过期时间
	IPNLockExpiration = 30 * time.Second
	// IPNLockRetries IPN 回调对账锁重试次数
	IPNLockRetries = 3

	// VoucherSweepLockKey 代金券过期扫描锁（多实例只允许一个扫描者）
	VoucherSweepLockKey = "voucher_expiry_sweep_lock"
	// VoucherSweepLockExpiration 扫描锁过期时间
	VoucherSweepLockExpiration = 5 * time.Minute
)

// 购物车相关常量
const (
	// CartKeyPrefix 购物车在 Redis 中的 key 前缀
	CartKeyPrefix = "cart:user:"
)

// 钱包供应商相关常量
const (
	// WalletRequestType 支付请求类型（跳转收银台）
	WalletRequestType = "captureWallet"
	// WalletResultCodeSuccess 供应商成功结果码
	WalletResultCodeSuccess = 0
)
