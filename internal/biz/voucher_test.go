package biz

import (
	"context"
	"testing"
	"time"

	"xinyuan_tech/order-service/internal/constants"
	"xinyuan_tech/order-service/internal/errors"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func activeVoucher() *Voucher {
	now := time.Now().UTC()
	return &Voucher{
		ID:            7,
		Code:          "SAVE10",
		DiscountType:  constants.VoucherTypePercentage,
		DiscountValue: d("10"),
		StartDate:     now.Add(-time.Hour),
		EndDate:       now.Add(time.Hour),
		Status:        constants.VoucherStatusActive,
	}
}

func TestVoucherApply(t *testing.T) {
	ctx := context.Background()

	t.Run("Unknown code", func(t *testing.T) {
		repo := new(MockVoucherRepo)
		uc := NewVoucherUsecase(repo, testLogger)
		repo.On("GetByCode", mock.Anything, "NOPE").Return(nil, nil).Once()

		_, _, err := uc.Apply(ctx, "nope", 1, d("100000"))

		assert.True(t, errors.IsCode(err, errors.ErrCodeVoucherNotFound))
		repo.AssertExpectations(t)
	})

	t.Run("Code is trimmed and uppercased before lookup", func(t *testing.T) {
		repo := new(MockVoucherRepo)
		uc := NewVoucherUsecase(repo, testLogger)
		repo.On("GetByCode", mock.Anything, "SAVE10").Return(activeVoucher(), nil).Once()

		_, discount, err := uc.Apply(ctx, "  save10 ", 1, d("100000"))

		assert.NoError(t, err)
		assert.True(t, discount.Equal(d("10000")))
		repo.AssertExpectations(t)
	})

	t.Run("Inactive voucher", func(t *testing.T) {
		v := activeVoucher()
		v.Status = constants.VoucherStatusInactive
		repo := new(MockVoucherRepo)
		uc := NewVoucherUsecase(repo, testLogger)
		repo.On("GetByCode", mock.Anything, "SAVE10").Return(v, nil).Once()

		_, _, err := uc.Apply(ctx, "SAVE10", 1, d("100000"))

		assert.True(t, errors.IsCode(err, errors.ErrCodeVoucherNotApplicable))
		assert.Equal(t, "inactive", kerrors.FromError(err).Metadata["reason"])
	})

	t.Run("Not started yet", func(t *testing.T) {
		v := activeVoucher()
		v.StartDate = time.Now().UTC().Add(time.Hour)
		repo := new(MockVoucherRepo)
		uc := NewVoucherUsecase(repo, testLogger)
		repo.On("GetByCode", mock.Anything, "SAVE10").Return(v, nil).Once()

		_, _, err := uc.Apply(ctx, "SAVE10", 1, d("100000"))

		assert.True(t, errors.IsCode(err, errors.ErrCodeVoucherNotApplicable))
	})

	t.Run("Expired by time window even when status is still ACTIVE", func(t *testing.T) {
		v := activeVoucher()
		v.EndDate = time.Now().UTC().Add(-time.Minute)
		repo := new(MockVoucherRepo)
		uc := NewVoucherUsecase(repo, testLogger)
		repo.On("GetByCode", mock.Anything, "SAVE10").Return(v, nil).Once()

		_, _, err := uc.Apply(ctx, "SAVE10", 1, d("100000"))

		assert.True(t, errors.IsCode(err, errors.ErrCodeVoucherNotApplicable))
	})

	t.Run("Global usage limit reached", func(t *testing.T) {
		v := activeVoucher()
		v.UsageLimit = 100
		v.UsedCount = 100
		repo := new(MockVoucherRepo)
		uc := NewVoucherUsecase(repo, testLogger)
		repo.On("GetByCode", mock.Anything, "SAVE10").Return(v, nil).Once()

		_, _, err := uc.Apply(ctx, "SAVE10", 1, d("100000"))

		assert.True(t, errors.IsCode(err, errors.ErrCodeVoucherNotApplicable))
	})

	t.Run("Per-user limit reached", func(t *testing.T) {
		v := activeVoucher()
		v.UsageLimitPerUser = 1
		repo := new(MockVoucherRepo)
		uc := NewVoucherUsecase(repo, testLogger)
		repo.On("GetByCode", mock.Anything, "SAVE10").Return(v, nil).Once()
		repo.On("CountUsageByUser", mock.Anything, uint64(7), uint64(42)).Return(1, nil).Once()

		_, _, err := uc.Apply(ctx, "SAVE10", 42, d("100000"))

		assert.True(t, errors.IsCode(err, errors.ErrCodeVoucherNotApplicable))
		repo.AssertExpectations(t)
	})

	t.Run("Guest cannot use per-user limited voucher", func(t *testing.T) {
		v := activeVoucher()
		v.UsageLimitPerUser = 1
		repo := new(MockVoucherRepo)
		uc := NewVoucherUsecase(repo, testLogger)
		repo.On("GetByCode", mock.Anything, "SAVE10").Return(v, nil).Once()

		_, _, err := uc.Apply(ctx, "SAVE10", 0, d("100000"))

		assert.True(t, errors.IsCode(err, errors.ErrCodeVoucherNotApplicable))
		repo.AssertNotCalled(t, "CountUsageByUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Minimum order value not met", func(t *testing.T) {
		v := activeVoucher()
		v.MinOrderValue = d("200000")
		repo := new(MockVoucherRepo)
		uc := NewVoucherUsecase(repo, testLogger)
		repo.On("GetByCode", mock.Anything, "SAVE10").Return(v, nil).Once()

		_, _, err := uc.Apply(ctx, "SAVE10", 1, d("100000"))

		assert.True(t, errors.IsCode(err, errors.ErrCodeVoucherNotApplicable))
	})
}

func TestComputeDiscount(t *testing.T) {
	t.Run("Percentage", func(t *testing.T) {
		v := activeVoucher()
		assert.True(t, computeDiscount(v, d("130000")).Equal(d("13000")))
	})

	t.Run("Percentage capped at max discount amount", func(t *testing.T) {
		v := activeVoucher()
		v.MaxDiscountAmount = d("5000")
		// 10% of 100000 is 10000, cap wins
		assert.True(t, computeDiscount(v, d("100000")).Equal(d("5000")))
	})

	t.Run("Fixed amount", func(t *testing.T) {
		v := activeVoucher()
		v.DiscountType = constants.VoucherTypeFixedAmount
		v.DiscountValue = d("20000")
		assert.True(t, computeDiscount(v, d("130000")).Equal(d("20000")))
	})

	t.Run("Fixed amount never exceeds the order amount", func(t *testing.T) {
		v := activeVoucher()
		v.DiscountType = constants.VoucherTypeFixedAmount
		v.DiscountValue = d("20000")
		assert.True(t, computeDiscount(v, d("12000")).Equal(d("12000")))
	})

	t.Run("Free shipping discounts nothing from the subtotal", func(t *testing.T) {
		v := activeVoucher()
		v.DiscountType = constants.VoucherTypeFreeShipping
		v.DiscountValue = d("0")
		assert.True(t, computeDiscount(v, d("130000")).IsZero())
	})
}

func TestVoucherRedeem(t *testing.T) {
	ctx := context.Background()

	t.Run("Success increments usage and records it", func(t *testing.T) {
		v := activeVoucher()
		repo := new(MockVoucherRepo)
		uc := NewVoucherUsecase(repo, testLogger)
		repo.On("IncrementUsage", mock.Anything, uint64(7)).Return(true, nil).Once()
		repo.On("AddUsage", mock.Anything, mock.MatchedBy(func(u *VoucherUsage) bool {
			return u.VoucherID == 7 && u.UserID == 42 && u.OrderID == 99 &&
				u.DiscountAmount.Equal(d("13000")) && u.ID != ""
		})).Return(nil).Once()

		err := uc.Redeem(ctx, v, 42, 99, d("13000"))

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("Slot taken concurrently after eligibility passed", func(t *testing.T) {
		v := activeVoucher()
		repo := new(MockVoucherRepo)
		uc := NewVoucherUsecase(repo, testLogger)
		repo.On("IncrementUsage", mock.Anything, uint64(7)).Return(false, nil).Once()

		err := uc.Redeem(ctx, v, 42, 99, d("13000"))

		assert.True(t, errors.IsCode(err, errors.ErrCodeVoucherNotApplicable))
		repo.AssertNotCalled(t, "AddUsage", mock.Anything, mock.Anything)
	})
}

func TestSweepExpired(t *testing.T) {
	repo := new(MockVoucherRepo)
	uc := NewVoucherUsecase(repo, testLogger)
	repo.On("MarkExpired", mock.Anything, mock.Anything).Return(int64(3), nil).Once()

	count, err := uc.SweepExpired(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, int64(3), count)
	repo.AssertExpectations(t)
}
