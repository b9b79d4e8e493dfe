package biz

import (
	"context"

	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewOrderUsecase,
	NewVoucherUsecase,
	NewPaymentOrchestrator,
)

// Transaction 事务执行接口，由 data 层实现
type Transaction interface {
	Exec(ctx context.Context, fn func(ctx context.Context) error) error
}
