package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"xinyuan_tech/order-service/internal/conf"
	"xinyuan_tech/order-service/internal/constants"

	"github.com/go-redsync/redsync/v4"
	"github.com/robfig/cron/v3"
	_ "go.uber.org/automaxprocs"
)

var (
	flagconf string
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()

	// 初始化配置
	bc, err := conf.Load(flagconf)
	if err != nil {
		panic(err)
	}
	if err := bc.Validate(); err != nil {
		panic(err)
	}

	// 初始化应用
	app, cleanup, err := wireApp(bc)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	// 创建定时任务调度器（支持秒级调度）
	cronScheduler := cron.New(cron.WithSeconds())

	// 1. 代金券过期扫描 - 每 10 分钟执行
	// 扫描只是清理性质，下单路径上的时间窗检查才是真正的闸门
	_, err = cronScheduler.AddFunc("0 */10 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		// 多实例部署时只允许一个扫描者
		mutex := app.rs.NewMutex(
			constants.VoucherSweepLockKey,
			redsync.WithExpiry(constants.VoucherSweepLockExpiration),
			redsync.WithTries(1),
		)
		if err := mutex.LockContext(ctx); err != nil {
			log.Printf("[CRON] Voucher sweep skipped, another instance holds the lock")
			return
		}
		defer func() {
			if _, err := mutex.UnlockContext(ctx); err != nil {
				log.Printf("[CRON] Failed to unlock voucher sweep mutex: %v", err)
			}
		}()

		count, err := app.vouchers.SweepExpired(ctx)
		if err != nil {
			log.Printf("[CRON] Error sweeping expired vouchers: %v", err)
		} else if count > 0 {
			log.Printf("[CRON] Marked %d vouchers as expired", count)
		}
	})
	if err != nil {
		log.Printf("Failed to add voucher sweep job: %v", err)
	}

	// 2. 滞留支付报告 - 每天凌晨 2 点执行
	// 超过阈值仍处于 PROCESSING 的支付记录需要人工对账
	_, err = cronScheduler.AddFunc("0 0 2 * * *", func() {
		log.Println("[CRON] Starting stale payment report...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		payments, err := app.payments.ReportStalePayments(ctx, bc.Order.StaleAge())
		if err != nil {
			log.Printf("[CRON] Error reporting stale payments: %v", err)
		} else {
			log.Printf("[CRON] Found %d stale payments needing manual reconciliation", len(payments))
		}
		log.Println("[CRON] Finished stale payment report")
	})
	if err != nil {
		log.Printf("Failed to add stale payment report job: %v", err)
	}

	// 启动定时任务
	cronScheduler.Start()
	log.Println("========================================")
	log.Println("Cron jobs started successfully")
	log.Println("Scheduled jobs:")
	log.Println("  - Voucher expiry sweep:  Every 10 minutes")
	log.Println("  - Stale payment report:  Every day at 02:00")
	log.Println("========================================")

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down gracefully...")

	// 停止定时任务
	ctx := cronScheduler.Stop()
	select {
	case <-ctx.Done():
		log.Println("Cron jobs stopped gracefully")
	case <-time.After(5 * time.Second):
		log.Println("Cron jobs forced to stop after timeout")
	}
}
