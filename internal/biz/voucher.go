package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"xinyuan_tech/order-service/internal/constants"
	"xinyuan_tech/order-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Voucher 代金券
type Voucher struct {
	ID                uint64
	Code              string
	DiscountType      string
	DiscountValue     decimal.Decimal
	MinOrderValue     decimal.Decimal // 零值表示未设置
	MaxDiscountAmount decimal.Decimal // 零值表示未设置
	UsageLimit        int             // 0 表示不限量
	UsedCount         int
	UsageLimitPerUser int // 0 表示不限
	StartDate         time.Time
	EndDate           time.Time
	Status            string
	IsPublic          bool
}

// VoucherUsage 核销记录，只追加
type VoucherUsage struct {
	ID             string
	VoucherID      uint64
	UserID         uint64
	OrderID        uint64
	DiscountAmount decimal.Decimal
	UsedAt         time.Time
}

// VoucherRepo 代金券仓库接口
type VoucherRepo interface {
	// GetByCode 按大写 code 查询，不存在时返回 (nil, nil)
	GetByCode(ctx context.Context, code string) (*Voucher, error)
	CountUsageByUser(ctx context.Context, voucherID, userID uint64) (int, error)
	// IncrementUsage 条件自增 used_count，名额已满返回 false
	IncrementUsage(ctx context.Context, voucherID uint64) (bool, error)
	AddUsage(ctx context.Context, usage *VoucherUsage) error
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
	ListPublic(ctx context.Context, now time.Time) ([]*Voucher, error)
}

// VoucherUsecase 代金券业务逻辑
type VoucherUsecase struct {
	repo VoucherRepo
	log  *log.Helper
}

// NewVoucherUsecase 创建代金券业务逻辑
func NewVoucherUsecase(repo VoucherRepo, logger log.Logger) *VoucherUsecase {
	return &VoucherUsecase{
		repo: repo,
		log:  log.NewHelper(logger),
	}
}

// Apply 校验代金券并计算折扣金额，不产生写入
// 各项检查按固定顺序执行，失败时在 metadata.reason 中标明具体未通过的检查项
func (uc *VoucherUsecase) Apply(ctx context.Context, code string, userID uint64, orderAmount decimal.Decimal) (*Voucher, decimal.Decimal, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	v, err := uc.repo.GetByCode(ctx, code)
	if err != nil {
		uc.log.Errorf("Failed to look up voucher %s: %v", code, err)
		return nil, decimal.Zero, err
	}
	if v == nil {
		return nil, decimal.Zero, errors.VoucherNotFound(fmt.Sprintf("voucher %s not found", code))
	}

	now := time.Now().UTC()
	if v.Status != constants.VoucherStatusActive {
		return nil, decimal.Zero, errors.VoucherNotApplicable("inactive", fmt.Sprintf("voucher %s is not active", code))
	}
	if now.Before(v.StartDate) {
		return nil, decimal.Zero, errors.VoucherNotApplicable("not_started", fmt.Sprintf("voucher %s is not valid yet", code))
	}
	// 懒惰的时间窗检查是真正的闸门，不依赖定时扫描是否已运行
	if now.After(v.EndDate) {
		return nil, decimal.Zero, errors.VoucherNotApplicable("expired", fmt.Sprintf("voucher %s has expired", code))
	}
	if v.UsageLimit > 0 && v.UsedCount >= v.UsageLimit {
		return nil, decimal.Zero, errors.VoucherNotApplicable("usage_limit_reached", fmt.Sprintf("voucher %s usage limit reached", code))
	}
	if v.UsageLimitPerUser > 0 {
		// 游客订单无法统计每用户用量，直接拒绝
		if userID == 0 {
			return nil, decimal.Zero, errors.VoucherNotApplicable("usage_limit_per_user_reached", fmt.Sprintf("voucher %s requires an authenticated user", code))
		}
		used, err := uc.repo.CountUsageByUser(ctx, v.ID, userID)
		if err != nil {
			uc.log.Errorf("Failed to count voucher usage for voucher %d user %d: %v", v.ID, userID, err)
			return nil, decimal.Zero, err
		}
		if used >= v.UsageLimitPerUser {
			return nil, decimal.Zero, errors.VoucherNotApplicable("usage_limit_per_user_reached", fmt.Sprintf("voucher %s per-user limit reached", code))
		}
	}
	if v.MinOrderValue.IsPositive() && orderAmount.LessThan(v.MinOrderValue) {
		return nil, decimal.Zero, errors.VoucherNotApplicable("min_order_value_not_met", fmt.Sprintf("order amount %s is below minimum %s", orderAmount, v.MinOrderValue))
	}

	return v, computeDiscount(v, orderAmount), nil
}

// computeDiscount 按折扣类型计算折扣，统一四舍五入到 2 位小数
func computeDiscount(v *Voucher, orderAmount decimal.Decimal) decimal.Decimal {
	switch v.DiscountType {
	case constants.VoucherTypePercentage:
		discount := orderAmount.Mul(v.DiscountValue).Div(decimal.NewFromInt(100)).Round(2)
		if v.MaxDiscountAmount.IsPositive() && discount.GreaterThan(v.MaxDiscountAmount) {
			discount = v.MaxDiscountAmount
		}
		return discount
	case constants.VoucherTypeFixedAmount:
		// 固定金额不允许把订单折成负数
		if v.DiscountValue.GreaterThan(orderAmount) {
			return orderAmount.Round(2)
		}
		return v.DiscountValue.Round(2)
	case constants.VoucherTypeFreeShipping:
		// 免运费对小计无折扣，配送费由支付编排独立清零
		return decimal.Zero
	}
	return decimal.Zero
}

// Redeem 核销一次代金券：条件自增 used_count 并追加一条核销记录
// 必须在下单事务内调用；条件自增保证并发核销不会超过 usage_limit
func (uc *VoucherUsecase) Redeem(ctx context.Context, v *Voucher, userID, orderID uint64, discount decimal.Decimal) error {
	ok, err := uc.repo.IncrementUsage(ctx, v.ID)
	if err != nil {
		uc.log.Errorf("Failed to increment usage for voucher %d: %v", v.ID, err)
		return err
	}
	if !ok {
		// 校验通过后名额被并发抢占
		return errors.VoucherNotApplicable("usage_limit_reached", fmt.Sprintf("voucher %s usage limit reached", v.Code))
	}

	return uc.repo.AddUsage(ctx, &VoucherUsage{
		ID:             uuid.New().String(),
		VoucherID:      v.ID,
		UserID:         userID,
		OrderID:        orderID,
		DiscountAmount: discount,
		UsedAt:         time.Now().UTC(),
	})
}

// SweepExpired 批量将已过期的代金券标记为 EXPIRED
// 仅为清理性质，真正的过期闸门在 Apply 的时间窗检查
func (uc *VoucherUsecase) SweepExpired(ctx context.Context) (int64, error) {
	count, err := uc.repo.MarkExpired(ctx, time.Now().UTC())
	if err != nil {
		uc.log.Errorf("Failed to sweep expired vouchers: %v", err)
		return 0, err
	}
	if count > 0 {
		uc.log.Infof("Marked %d vouchers as expired", count)
	}
	return count, nil
}

// ListPublic 列出当前可见的公开代金券
func (uc *VoucherUsecase) ListPublic(ctx context.Context) ([]*Voucher, error) {
	return uc.repo.ListPublic(ctx, time.Now().UTC())
}
