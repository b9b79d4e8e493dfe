package errors

// 订单服务错误码定义
// 错误码格式：SSMMEE (6位数字)，其中 SS=14 表示 order-service
// 模块划分：
//   01: 购物车/结算模块
//   02: 代金券模块
//   03: 订单模块
//   04: 支付模块

// 购物车/结算模块 (140100-140199)
const (
	// ErrCodeInvalidCartState 购物车状态与提交内容不一致错误
	ErrCodeInvalidCartState = 140101
	// ErrCodeProductUnavailable 商品不存在或已下架错误
	ErrCodeProductUnavailable = 140102
)

// 代金券模块 (140200-140299)
const (
	// ErrCodeVoucherNotFound 代金券不存在错误
	ErrCodeVoucherNotFound = 140201
	// ErrCodeVoucherNotApplicable 代金券不可用错误（具体原因见 metadata.reason）
	ErrCodeVoucherNotApplicable = 140202
)

// 订单模块 (140300-140399)
const (
	// ErrCodeOrderNotFound 订单不存在错误
	ErrCodeOrderNotFound = 140301
	// ErrCodeOrderStateInvalid 订单状态不允许该操作错误
	ErrCodeOrderStateInvalid = 140302
)

// 支付模块 (140400-140499)
const (
	// ErrCodeAmountOutOfRange 支付金额超出供应商限额错误
	ErrCodeAmountOutOfRange = 140401
	// ErrCodePaymentInitiationFailed 支付发起失败错误
	ErrCodePaymentInitiationFailed = 140402
	// ErrCodeSignatureMismatch 回调签名校验失败错误
	ErrCodeSignatureMismatch = 140403
)
