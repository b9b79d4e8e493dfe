package data

import (
	"context"
	"errors"
	"strings"
	"time"

	"xinyuan_tech/order-service/internal/biz"
	"xinyuan_tech/order-service/internal/constants"
	"xinyuan_tech/order-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// voucherRepo 代金券仓库实现
type voucherRepo struct {
	data *Data
	log  *log.Helper
}

// NewVoucherRepo 创建代金券仓库
func NewVoucherRepo(data *Data, logger log.Logger) biz.VoucherRepo {
	return &voucherRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// GetByCode 按 code 查询代金券，code 统一存大写
func (r *voucherRepo) GetByCode(ctx context.Context, code string) (*biz.Voucher, error) {
	var m model.Voucher
	err := r.data.DB(ctx).First(&m, "code = ?", strings.ToUpper(code)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Errorf("Failed to get voucher %s: %v", code, err)
		return nil, err
	}
	return toBizVoucher(&m), nil
}

// CountUsageByUser 统计用户对某代金券的核销次数
// 每用户限额只通过数核销记录行实现，从不在用户上维护计数器
func (r *voucherRepo) CountUsageByUser(ctx context.Context, voucherID, userID uint64) (int, error) {
	var count int64
	err := r.data.DB(ctx).Model(&model.VoucherUsage{}).
		Where("voucher_id = ? AND user_id = ?", voucherID, userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// IncrementUsage 条件自增 used_count
// WHERE 子句带上当前名额判断，两个并发核销抢最后一个名额时只有一个能成功
func (r *voucherRepo) IncrementUsage(ctx context.Context, voucherID uint64) (bool, error) {
	result := r.data.DB(ctx).Model(&model.Voucher{}).
		Where("voucher_id = ? AND (usage_limit = 0 OR used_count < usage_limit)", voucherID).
		Updates(map[string]interface{}{
			"used_count": gorm.Expr("used_count + 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		r.log.Errorf("Failed to increment usage for voucher %d: %v", voucherID, result.Error)
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// AddUsage 追加一条核销记录
func (r *voucherRepo) AddUsage(ctx context.Context, usage *biz.VoucherUsage) error {
	m := &model.VoucherUsage{
		ID:             usage.ID,
		VoucherID:      usage.VoucherID,
		UserID:         usage.UserID,
		OrderID:        usage.OrderID,
		DiscountAmount: usage.DiscountAmount,
		UsedAt:         usage.UsedAt,
	}
	if err := r.data.DB(ctx).Create(m).Error; err != nil {
		r.log.Errorf("Failed to add voucher usage for voucher %d: %v", usage.VoucherID, err)
		return err
	}
	return nil
}

// MarkExpired 批量将过期代金券置为 EXPIRED，幂等
func (r *voucherRepo) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.data.DB(ctx).Model(&model.Voucher{}).
		Where("end_date < ? AND status <> ?", now, constants.VoucherStatusExpired).
		Updates(map[string]interface{}{
			"status":     constants.VoucherStatusExpired,
			"updated_at": now,
		})
	if result.Error != nil {
		r.log.Errorf("Failed to mark expired vouchers: %v", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListPublic 列出当前有效的公开代金券
func (r *voucherRepo) ListPublic(ctx context.Context, now time.Time) ([]*biz.Voucher, error) {
	var models []model.Voucher
	err := r.data.DB(ctx).
		Where("is_public = ? AND status = ? AND start_date <= ? AND end_date >= ?",
			true, constants.VoucherStatusActive, now, now).
		Order("end_date").
		Find(&models).Error
	if err != nil {
		r.log.Errorf("Failed to list public vouchers: %v", err)
		return nil, err
	}
	vouchers := make([]*biz.Voucher, len(models))
	for i, m := range models {
		vouchers[i] = toBizVoucher(&m)
	}
	return vouchers, nil
}

func toBizVoucher(m *model.Voucher) *biz.Voucher {
	return &biz.Voucher{
		ID:                m.ID,
		Code:              m.Code,
		DiscountType:      m.DiscountType,
		DiscountValue:     m.DiscountValue,
		MinOrderValue:     m.MinOrderValue,
		MaxDiscountAmount: m.MaxDiscountAmount,
		UsageLimit:        m.UsageLimit,
		UsedCount:         m.UsedCount,
		UsageLimitPerUser: m.UsageLimitPerUser,
		StartDate:         m.StartDate,
		EndDate:           m.EndDate,
		Status:            m.Status,
		IsPublic:          m.IsPublic,
	}
}
