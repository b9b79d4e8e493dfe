package biz

import (
	"context"
	"fmt"
	"testing"
	"time"

	"xinyuan_tech/order-service/internal/constants"
	"xinyuan_tech/order-service/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestOrchestrator(t *testing.T) (*PaymentOrchestrator, *MockOrderRepo, *MockWalletClient) {
	t.Helper()
	orders := new(MockOrderRepo)
	wallet := new(MockWalletClient)
	po := NewPaymentOrchestrator(testBootstrap(), orders, wallet, fakeTx{}, nil, testLogger)
	return po, orders, wallet
}

func TestPreparePayment(t *testing.T) {
	t.Run("COD settles immediately", func(t *testing.T) {
		po, _, _ := newTestOrchestrator(t)
		order := &Order{TotalPrice: d("158000"), PaymentMethod: constants.PaymentMethodCOD}

		assert.NoError(t, po.PreparePayment(order))
		assert.Equal(t, constants.OrderStatusConfirmed, order.Status)
		assert.Equal(t, constants.PaymentStatusPaid, order.Payment.Status)
		assert.Equal(t, constants.PaymentKindCash, order.Payment.Kind)
		assert.NotNil(t, order.Payment.PaymentDate)
	})

	t.Run("Wallet waits for the callback", func(t *testing.T) {
		po, _, _ := newTestOrchestrator(t)
		order := &Order{TotalPrice: d("143000"), PaymentMethod: constants.PaymentMethodWallet}

		assert.NoError(t, po.PreparePayment(order))
		assert.Equal(t, constants.OrderStatusWaitingForPayment, order.Status)
		assert.Equal(t, constants.PaymentStatusProcessing, order.Payment.Status)
		assert.Equal(t, constants.PaymentKindWallet, order.Payment.Kind)
		assert.Nil(t, order.Payment.PaymentDate)
	})

	t.Run("Wallet amount above provider maximum fails before any write", func(t *testing.T) {
		po, _, _ := newTestOrchestrator(t)
		order := &Order{TotalPrice: d("60000000"), PaymentMethod: constants.PaymentMethodWallet}

		err := po.PreparePayment(order)

		assert.True(t, errors.IsCode(err, errors.ErrCodeAmountOutOfRange))
		assert.Nil(t, order.Payment)
	})

	t.Run("Unknown method", func(t *testing.T) {
		po, _, _ := newTestOrchestrator(t)
		order := &Order{TotalPrice: d("1000"), PaymentMethod: "CHECK"}

		err := po.PreparePayment(order)

		assert.True(t, errors.IsCode(err, errors.ErrCodePaymentInitiationFailed))
	})
}

func TestInitiateWallet(t *testing.T) {
	ctx := context.Background()

	t.Run("Amount below provider minimum is clamped up", func(t *testing.T) {
		po, orders, wallet := newTestOrchestrator(t)
		order := &Order{ID: 99, TotalPrice: d("500"), PaymentMethod: constants.PaymentMethodWallet,
			Payment: &Payment{Status: constants.PaymentStatusProcessing}}
		wallet.On("CreatePayment", mock.Anything, mock.MatchedBy(func(req *WalletCreateRequest) bool {
			return req.Amount == 1000
		})).Return(&WalletCreateResult{PayURL: "https://pay", ResultCode: 0}, nil).Once()
		orders.On("UpdatePayment", mock.Anything, mock.Anything).Return(nil).Once()

		payURL, err := po.InitiateWallet(ctx, order)

		assert.NoError(t, err)
		assert.Equal(t, "https://pay", payURL)
		wallet.AssertExpectations(t)
	})

	t.Run("Provider unreachable", func(t *testing.T) {
		po, orders, wallet := newTestOrchestrator(t)
		order := &Order{ID: 99, TotalPrice: d("143000"),
			Payment: &Payment{Status: constants.PaymentStatusProcessing}}
		wallet.On("CreatePayment", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("dial tcp: i/o timeout")).Once()

		_, err := po.InitiateWallet(ctx, order)

		assert.True(t, errors.IsCode(err, errors.ErrCodePaymentInitiationFailed))
		orders.AssertNotCalled(t, "UpdatePayment", mock.Anything, mock.Anything)
	})

	t.Run("Provider order ref and request id are recorded", func(t *testing.T) {
		po, orders, wallet := newTestOrchestrator(t)
		order := &Order{ID: 99, TotalPrice: d("143000"),
			Payment: &Payment{Status: constants.PaymentStatusProcessing}}
		wallet.On("CreatePayment", mock.Anything, mock.Anything).
			Return(&WalletCreateResult{PayURL: "https://pay", ResultCode: 0}, nil).Once()
		orders.On("UpdatePayment", mock.Anything, mock.MatchedBy(func(p *Payment) bool {
			return p.ProviderOrderRef != "" && p.ProviderRequestID != ""
		})).Return(nil).Once()

		_, err := po.InitiateWallet(ctx, order)

		assert.NoError(t, err)
		orders.AssertExpectations(t)
	})
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()

	notification := func(resultCode int) *WalletNotification {
		return &WalletNotification{
			PartnerCode: "PARTNER",
			OrderRef:    "99-a1b2c3d4e5f6",
			RequestID:   "req-1",
			Amount:      143000,
			TransID:     4088878653,
			ResultCode:  resultCode,
			Message:     "Successful.",
			Signature:   "sig",
		}
	}

	waitingOrder := func() *Order {
		return &Order{
			ID:     99,
			Status: constants.OrderStatusWaitingForPayment,
			Payment: &Payment{
				ID:     5,
				Status: constants.PaymentStatusProcessing,
				Amount: d("143000"),
			},
		}
	}

	t.Run("Bad signature writes nothing", func(t *testing.T) {
		po, orders, wallet := newTestOrchestrator(t)
		n := notification(0)
		wallet.On("VerifyNotification", n).Return(false).Once()

		err := po.Reconcile(ctx, n)

		assert.True(t, errors.IsCode(err, errors.ErrCodeSignatureMismatch))
		orders.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("Unresolvable order ref", func(t *testing.T) {
		po, _, wallet := newTestOrchestrator(t)
		n := notification(0)
		n.OrderRef = "garbage"
		wallet.On("VerifyNotification", n).Return(true).Once()

		err := po.Reconcile(ctx, n)

		assert.True(t, errors.IsCode(err, errors.ErrCodeOrderNotFound))
	})

	t.Run("Success confirms the order", func(t *testing.T) {
		po, orders, wallet := newTestOrchestrator(t)
		n := notification(0)
		wallet.On("VerifyNotification", n).Return(true).Once()
		orders.On("Get", mock.Anything, uint64(99)).Return(waitingOrder(), nil).Once()
		orders.On("UpdatePayment", mock.Anything, mock.MatchedBy(func(p *Payment) bool {
			return p.Status == constants.PaymentStatusPaid &&
				p.ProviderTransID == "4088878653" &&
				p.PaymentDate != nil
		})).Return(nil).Once()
		orders.On("UpdateStatus", mock.Anything, uint64(99), constants.OrderStatusConfirmed).Return(nil).Once()

		assert.NoError(t, po.Reconcile(ctx, n))
		orders.AssertExpectations(t)
	})

	t.Run("Failure cancels the order", func(t *testing.T) {
		po, orders, wallet := newTestOrchestrator(t)
		n := notification(1006)
		n.Message = "Transaction denied by user."
		wallet.On("VerifyNotification", n).Return(true).Once()
		orders.On("Get", mock.Anything, uint64(99)).Return(waitingOrder(), nil).Once()
		orders.On("UpdatePayment", mock.Anything, mock.MatchedBy(func(p *Payment) bool {
			return p.Status == constants.PaymentStatusFail && p.ProviderResultCode == 1006
		})).Return(nil).Once()
		orders.On("UpdateStatus", mock.Anything, uint64(99), constants.OrderStatusCanceled).Return(nil).Once()

		assert.NoError(t, po.Reconcile(ctx, n))
		orders.AssertExpectations(t)
	})

	t.Run("Duplicate delivery is a no-op", func(t *testing.T) {
		po, orders, wallet := newTestOrchestrator(t)
		n := notification(0)
		paid := waitingOrder()
		paid.Status = constants.OrderStatusConfirmed
		paid.Payment.Status = constants.PaymentStatusPaid
		wallet.On("VerifyNotification", n).Return(true).Once()
		orders.On("Get", mock.Anything, uint64(99)).Return(paid, nil).Once()

		assert.NoError(t, po.Reconcile(ctx, n))
		orders.AssertNotCalled(t, "UpdatePayment", mock.Anything, mock.Anything)
		orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unknown order", func(t *testing.T) {
		po, orders, wallet := newTestOrchestrator(t)
		n := notification(0)
		wallet.On("VerifyNotification", n).Return(true).Once()
		orders.On("Get", mock.Anything, uint64(99)).Return(nil, nil).Once()

		err := po.Reconcile(ctx, n)

		assert.True(t, errors.IsCode(err, errors.ErrCodeOrderNotFound))
	})
}

func TestReportStalePayments(t *testing.T) {
	po, orders, _ := newTestOrchestrator(t)
	stale := []*Payment{
		{ID: 5, OrderID: 99, Status: constants.PaymentStatusProcessing, CreatedAt: time.Now().Add(-48 * time.Hour)},
	}
	orders.On("ListStalePayments", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
		return time.Since(cutoff) > 23*time.Hour
	})).Return(stale, nil).Once()

	got, err := po.ReportStalePayments(context.Background(), 24*time.Hour)

	assert.NoError(t, err)
	assert.Len(t, got, 1)
	orders.AssertExpectations(t)
}

func TestOrderRef(t *testing.T) {
	t.Run("Round trip", func(t *testing.T) {
		ref := NewOrderRef(99)
		id, err := ParseOrderRef(ref)
		assert.NoError(t, err)
		assert.Equal(t, uint64(99), id)
	})

	t.Run("Refs for the same order are unique", func(t *testing.T) {
		assert.NotEqual(t, NewOrderRef(99), NewOrderRef(99))
	})

	t.Run("Malformed refs", func(t *testing.T) {
		for _, ref := range []string{"", "garbage", "-abc", "0-abc", "abc-123"} {
			_, err := ParseOrderRef(ref)
			assert.Error(t, err, ref)
		}
	})
}
