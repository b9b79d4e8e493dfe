package biz

import (
	"xinyuan_tech/order-service/internal/constants"

	"github.com/shopspring/decimal"
)

// Pricing 计价结果，折扣前
type Pricing struct {
	Subtotal    decimal.Decimal
	Vat         decimal.Decimal
	ShippingFee decimal.Decimal
}

// GrandTotalBeforeDiscount 折扣前应付总额
func (p *Pricing) GrandTotalBeforeDiscount() decimal.Decimal {
	return p.Subtotal.Add(p.Vat).Add(p.ShippingFee)
}

// computePricing 根据订单明细与支付方式计价
// 每个金额只在产生处四舍五入一次(2位小数)，不从已舍入的中间值再推导，避免累计漂移
func computePricing(lines []*OrderLine, method string, vatRate, codFee decimal.Decimal) *Pricing {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Subtotal)
	}

	vat := subtotal.Mul(vatRate).Round(2)

	shipping := decimal.Zero
	if method == constants.PaymentMethodCOD {
		shipping = codFee
	}

	return &Pricing{
		Subtotal:    subtotal,
		Vat:         vat,
		ShippingFee: shipping,
	}
}
