//go:build wireinject
// +build wireinject

package main

import (
	"os"
	"xinyuan_tech/order-service/internal/biz"
	"xinyuan_tech/order-service/internal/conf"
	"xinyuan_tech/order-service/internal/data"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redsync/redsync/v4"
	"github.com/google/wire"
)

// CronApp Cron 应用结构
type CronApp struct {
	vouchers *biz.VoucherUsecase
	payments *biz.PaymentOrchestrator
	rs       *redsync.Redsync
}

// wireApp 初始化应用
func wireApp(*conf.Bootstrap) (*CronApp, func(), error) {
	panic(wire.Build(
		// Logger
		wire.FieldsOf(new(*conf.Bootstrap), "Log"),
		newLogger,

		// Data 层
		data.ProviderSet,

		// Biz 层
		biz.ProviderSet,

		// App 结构
		wire.Struct(new(CronApp), "*"),
	))
}

// newLogger 创建 logger
func newLogger(c *conf.Log) log.Logger {
	return log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.name", "order-cron",
	)
}
