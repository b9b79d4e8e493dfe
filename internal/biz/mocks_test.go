package biz

import (
	"context"
	"io"
	"time"

	"xinyuan_tech/order-service/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/mock"
)

var testLogger = log.NewStdLogger(io.Discard)

func testBootstrap() *conf.Bootstrap {
	return &conf.Bootstrap{
		Client: &conf.Client{
			Wallet: &conf.Wallet{
				Endpoint:     "https://wallet.example.com",
				PartnerCode:  "PARTNER",
				AccessKey:    "access",
				SecretKey:    "secret",
				RedirectURL:  "https://example.com/return",
				IpnURL:       "https://example.com/ipn",
				MinAmount:    1000,
				MaxAmount:    50000000,
				ExchangeRate: "1",
				Currency:     "VND",
			},
		},
		Order: &conf.Order{
			VatRate:        "0.10",
			CodShippingFee: "15000",
			Currency:       "VND",
		},
	}
}

// fakeTx runs the callback directly, rollback is modeled by the error bubbling up.
type fakeTx struct{}

func (fakeTx) Exec(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- Mock OrderRepo ---

type MockOrderRepo struct {
	mock.Mock
}

func (m *MockOrderRepo) Create(ctx context.Context, order *Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepo) Get(ctx context.Context, orderID uint64) (*Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockOrderRepo) ListByUser(ctx context.Context, userID uint64, page, pageSize int) ([]*Order, int, error) {
	args := m.Called(ctx, userID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*Order), args.Int(1), args.Error(2)
}

func (m *MockOrderRepo) UpdateStatus(ctx context.Context, orderID uint64, status string) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *MockOrderRepo) UpdatePayment(ctx context.Context, p *Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockOrderRepo) MarkLinesReviewable(ctx context.Context, orderID uint64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *MockOrderRepo) ListStalePayments(ctx context.Context, olderThan time.Time) ([]*Payment, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Payment), args.Error(1)
}

// --- Mock ProductRepo ---

type MockProductRepo struct {
	mock.Mock
}

func (m *MockProductRepo) GetByIDs(ctx context.Context, ids []uint64) (map[uint64]*Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint64]*Product), args.Error(1)
}

// --- Mock CartRepo ---

type MockCartRepo struct {
	mock.Mock
}

func (m *MockCartRepo) GetCart(ctx context.Context, userID uint64) ([]*CartLine, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*CartLine), args.Error(1)
}

func (m *MockCartRepo) ClearCart(ctx context.Context, userID uint64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// --- Mock VoucherRepo ---

type MockVoucherRepo struct {
	mock.Mock
}

func (m *MockVoucherRepo) GetByCode(ctx context.Context, code string) (*Voucher, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Voucher), args.Error(1)
}

func (m *MockVoucherRepo) CountUsageByUser(ctx context.Context, voucherID, userID uint64) (int, error) {
	args := m.Called(ctx, voucherID, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockVoucherRepo) IncrementUsage(ctx context.Context, voucherID uint64) (bool, error) {
	args := m.Called(ctx, voucherID)
	return args.Bool(0), args.Error(1)
}

func (m *MockVoucherRepo) AddUsage(ctx context.Context, usage *VoucherUsage) error {
	args := m.Called(ctx, usage)
	return args.Error(0)
}

func (m *MockVoucherRepo) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVoucherRepo) ListPublic(ctx context.Context, now time.Time) ([]*Voucher, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Voucher), args.Error(1)
}

// --- Mock WalletClient ---

type MockWalletClient struct {
	mock.Mock
}

func (m *MockWalletClient) CreatePayment(ctx context.Context, req *WalletCreateRequest) (*WalletCreateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*WalletCreateResult), args.Error(1)
}

func (m *MockWalletClient) VerifyNotification(n *WalletNotification) bool {
	args := m.Called(n)
	return args.Bool(0)
}
