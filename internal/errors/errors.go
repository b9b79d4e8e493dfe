package errors

import (
	kerrors "github.com/go-kratos/kratos/v2/errors"
)

// 基于 kratos errors 的业务错误构造函数
// code 使用本服务的 6 位业务错误码，HTTP 状态由 server 层的错误编码器映射

// InvalidCartState 购物车与提交内容不一致，调用方需要刷新购物车后重试
func InvalidCartState(message string) *kerrors.Error {
	return kerrors.New(ErrCodeInvalidCartState, "INVALID_CART_STATE", message)
}

// ProductUnavailable 商品不存在或不可售
func ProductUnavailable(message string) *kerrors.Error {
	return kerrors.New(ErrCodeProductUnavailable, "PRODUCT_UNAVAILABLE", message)
}

// VoucherNotFound 代金券不存在
func VoucherNotFound(message string) *kerrors.Error {
	return kerrors.New(ErrCodeVoucherNotFound, "VOUCHER_NOT_FOUND", message)
}

// VoucherNotApplicable 代金券校验失败，reason 标识具体未通过的检查项
func VoucherNotApplicable(reason, message string) *kerrors.Error {
	return kerrors.New(ErrCodeVoucherNotApplicable, "VOUCHER_NOT_APPLICABLE", message).
		WithMetadata(map[string]string{"reason": reason})
}

// OrderNotFound 订单不存在
func OrderNotFound(message string) *kerrors.Error {
	return kerrors.New(ErrCodeOrderNotFound, "ORDER_NOT_FOUND", message)
}

// OrderStateInvalid 当前订单状态不允许该操作
func OrderStateInvalid(message string) *kerrors.Error {
	return kerrors.New(ErrCodeOrderStateInvalid, "ORDER_STATE_INVALID", message)
}

// AmountOutOfRange 支付金额超出供应商允许范围，未发起任何外部调用
func AmountOutOfRange(message string) *kerrors.Error {
	return kerrors.New(ErrCodeAmountOutOfRange, "AMOUNT_OUT_OF_RANGE", message)
}

// PaymentInitiationFailed 供应商拒绝或调用失败，本次下单整体回滚
func PaymentInitiationFailed(message string) *kerrors.Error {
	return kerrors.New(ErrCodePaymentInitiationFailed, "PAYMENT_INITIATION_FAILED", message)
}

// SignatureMismatch 回调签名不匹配，按疑似篡改处理，不产生任何状态变更
func SignatureMismatch(message string) *kerrors.Error {
	return kerrors.New(ErrCodeSignatureMismatch, "SIGNATURE_MISMATCH", message)
}

// IsCode 判断 err 是否携带指定业务错误码
func IsCode(err error, code int) bool {
	se := kerrors.FromError(err)
	return se != nil && int(se.Code) == code
}

// Reason 返回业务错误的 reason，非业务错误返回空串
func Reason(err error) string {
	se := kerrors.FromError(err)
	if se == nil {
		return ""
	}
	return se.Reason
}
