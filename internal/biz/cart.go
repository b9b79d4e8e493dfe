package biz

import (
	"fmt"

	"xinyuan_tech/order-service/internal/errors"
)

// validateCartSnapshot 校验客户端提交的购买行与服务端购物车完全一致
// 任一行商品缺失或数量不一致即整单失败，防止其它会话并发修改购物车造成的脏下单
func validateCartSnapshot(cart []*CartLine, items []SubmittedItem) error {
	if len(cart) == 0 {
		return errors.InvalidCartState("cart is empty")
	}
	if len(items) == 0 {
		return errors.InvalidCartState("no items submitted")
	}

	byProduct := make(map[uint64]int, len(cart))
	for _, line := range cart {
		byProduct[line.ProductID] = line.Quantity
	}

	for _, it := range items {
		if it.Quantity <= 0 {
			return errors.InvalidCartState(fmt.Sprintf("invalid quantity %d for product %d", it.Quantity, it.ProductID))
		}
		qty, ok := byProduct[it.ProductID]
		if !ok {
			return errors.InvalidCartState(fmt.Sprintf("product %d is not in the cart", it.ProductID))
		}
		if qty != it.Quantity {
			return errors.InvalidCartState(fmt.Sprintf("quantity mismatch for product %d: cart has %d, submitted %d", it.ProductID, qty, it.Quantity))
		}
	}
	return nil
}
