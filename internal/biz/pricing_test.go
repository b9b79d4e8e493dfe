package biz

import (
	"testing"

	"xinyuan_tech/order-service/internal/constants"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestComputePricing(t *testing.T) {
	vatRate := d("0.10")
	codFee := d("15000")

	t.Run("COD order gets VAT and shipping fee", func(t *testing.T) {
		lines := []*OrderLine{
			{UnitPrice: d("50000"), Quantity: 2, Subtotal: d("100000")},
			{UnitPrice: d("30000"), Quantity: 1, Subtotal: d("30000")},
		}

		p := computePricing(lines, constants.PaymentMethodCOD, vatRate, codFee)

		assert.True(t, p.Subtotal.Equal(d("130000")), "subtotal = %s", p.Subtotal)
		assert.True(t, p.Vat.Equal(d("13000")), "vat = %s", p.Vat)
		assert.True(t, p.ShippingFee.Equal(d("15000")), "shipping = %s", p.ShippingFee)
		assert.True(t, p.GrandTotalBeforeDiscount().Equal(d("158000")))
	})

	t.Run("Wallet order has no shipping fee", func(t *testing.T) {
		lines := []*OrderLine{
			{UnitPrice: d("45000"), Quantity: 2, Subtotal: d("90000")},
		}

		p := computePricing(lines, constants.PaymentMethodWallet, vatRate, codFee)

		assert.True(t, p.Subtotal.Equal(d("90000")))
		assert.True(t, p.Vat.Equal(d("9000")))
		assert.True(t, p.ShippingFee.IsZero())
		assert.True(t, p.GrandTotalBeforeDiscount().Equal(d("99000")))
	})

	t.Run("VAT is rounded once at 2 decimal places", func(t *testing.T) {
		lines := []*OrderLine{
			{UnitPrice: d("33.33"), Quantity: 1, Subtotal: d("33.33")},
		}

		p := computePricing(lines, constants.PaymentMethodWallet, vatRate, codFee)

		// 33.33 * 0.10 = 3.333 -> 3.33
		assert.True(t, p.Vat.Equal(d("3.33")), "vat = %s", p.Vat)
	})

	t.Run("Empty lines produce zero subtotal", func(t *testing.T) {
		p := computePricing(nil, constants.PaymentMethodCOD, vatRate, codFee)

		assert.True(t, p.Subtotal.IsZero())
		assert.True(t, p.Vat.IsZero())
		assert.True(t, p.ShippingFee.Equal(codFee))
	})
}
