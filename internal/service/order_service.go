package service

import (
	"context"
	"time"

	"xinyuan_tech/order-service/internal/auth"
	"xinyuan_tech/order-service/internal/biz"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-playground/validator/v10"
)

// OrderService 订单服务
type OrderService struct {
	orders   *biz.OrderUsecase
	payments *biz.PaymentOrchestrator
	vouchers *biz.VoucherUsecase
	validate *validator.Validate
}

// NewOrderService 创建订单服务实例
func NewOrderService(orders *biz.OrderUsecase, payments *biz.PaymentOrchestrator, vouchers *biz.VoucherUsecase) *OrderService {
	return &OrderService{
		orders:   orders,
		payments: payments,
		vouchers: vouchers,
		validate: validator.New(),
	}
}

// OrderItemInput 客户端提交的购买行
type OrderItemInput struct {
	ProductID uint64 `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	Items           []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	ShippingAddress string           `json:"shippingAddress" validate:"required"`
	PaymentMethod   string           `json:"paymentMethod" validate:"required,oneof=COD WALLET"`
	VoucherCode     string           `json:"voucherCode"`
}

// OrderLineView 订单明细视图
type OrderLineView struct {
	ProductID   uint64 `json:"productId"`
	ProductName string `json:"productName"`
	UnitPrice   string `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
	Subtotal    string `json:"subtotal"`
	Reviewable  bool   `json:"reviewable"`
}

// OrderView 订单视图
type OrderView struct {
	OrderID         uint64          `json:"orderId"`
	Status          string          `json:"status"`
	Lines           []OrderLineView `json:"lines"`
	Subtotal        string          `json:"subtotal"`
	Vat             string          `json:"vat"`
	ShippingFee     string          `json:"shippingFee"`
	Discount        string          `json:"discount"`
	TotalPrice      string          `json:"totalPrice"`
	PaymentMethod   string          `json:"paymentMethod"`
	PaymentStatus   string          `json:"paymentStatus,omitempty"`
	VoucherCode     string          `json:"voucherCode,omitempty"`
	ShippingAddress string          `json:"shippingAddress,omitempty"`
	CreatedAt       string          `json:"createdAt"`
}

// CreateOrderReply 下单响应，钱包支付时携带跳转地址
type CreateOrderReply struct {
	Order  *OrderView `json:"order"`
	PayURL string     `json:"payUrl,omitempty"`
}

// ListOrdersReply 订单分页响应
type ListOrdersReply struct {
	Orders   []*OrderView `json:"orders"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
}

// VoucherView 公开代金券视图
type VoucherView struct {
	Code              string `json:"code"`
	DiscountType      string `json:"discountType"`
	DiscountValue     string `json:"discountValue"`
	MinOrderValue     string `json:"minOrderValue,omitempty"`
	MaxDiscountAmount string `json:"maxDiscountAmount,omitempty"`
	EndDate           string `json:"endDate"`
}

// ListVouchersReply 公开代金券列表响应
type ListVouchersReply struct {
	Vouchers []*VoucherView `json:"vouchers"`
}

// AdvanceOrderStatusRequest 管理端推进订单状态请求
type AdvanceOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=SHIPPING DELIVERED COMPLETED"`
}

// WalletIPNRequest 钱包供应商 IPN 回调载荷
type WalletIPNRequest struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	OrderInfo    string `json:"orderInfo"`
	OrderType    string `json:"orderType"`
	TransID      int64  `json:"transId"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	PayType      string `json:"payType"`
	ResponseTime int64  `json:"responseTime"`
	ExtraData    string `json:"extraData"`
	Signature    string `json:"signature"`
}

// IPNAck 对供应商回调的简单应答
type IPNAck struct {
	Message string `json:"message"`
}

// CreateOrder 下单
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderReply, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, kerrors.BadRequest("INVALID_ARGUMENT", err.Error())
	}
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]biz.SubmittedItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = biz.SubmittedItem{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	result, err := s.orders.Checkout(ctx, userID, &biz.CheckoutInput{
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		VoucherCode:     req.VoucherCode,
	})
	if err != nil {
		return nil, err
	}

	return &CreateOrderReply{
		Order:  toOrderView(result.Order),
		PayURL: result.PayURL,
	}, nil
}

// GetOrder 查询订单
func (s *OrderService) GetOrder(ctx context.Context, orderID uint64) (*OrderView, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckOwnership(ctx, order.UserID); err != nil {
		return nil, err
	}
	return toOrderView(order), nil
}

// ListMyOrders 分页查询当前用户订单
func (s *OrderService) ListMyOrders(ctx context.Context, page, pageSize int) (*ListOrdersReply, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}
	orders, total, err := s.orders.ListMyOrders(ctx, userID, page, pageSize)
	if err != nil {
		return nil, err
	}
	views := make([]*OrderView, len(orders))
	for i, o := range orders {
		views[i] = toOrderView(o)
	}
	return &ListOrdersReply{Orders: views, Total: total, Page: page, PageSize: pageSize}, nil
}

// CancelOrder 用户取消自己的订单
func (s *OrderService) CancelOrder(ctx context.Context, orderID uint64) error {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if err := auth.CheckOwnership(ctx, order.UserID); err != nil {
		return err
	}
	return s.orders.CancelOrder(ctx, orderID)
}

// AdvanceOrderStatus 管理端推进订单状态
func (s *OrderService) AdvanceOrderStatus(ctx context.Context, orderID uint64, req *AdvanceOrderStatusRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return kerrors.BadRequest("INVALID_ARGUMENT", err.Error())
	}
	if !auth.IsAdmin(ctx) {
		return kerrors.Forbidden("FORBIDDEN", "admin role required")
	}
	return s.orders.AdvanceStatus(ctx, orderID, req.Status)
}

// ListVouchers 列出当前可领用的公开代金券
func (s *OrderService) ListVouchers(ctx context.Context) (*ListVouchersReply, error) {
	vouchers, err := s.vouchers.ListPublic(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]*VoucherView, len(vouchers))
	for i, v := range vouchers {
		view := &VoucherView{
			Code:          v.Code,
			DiscountType:  v.DiscountType,
			DiscountValue: v.DiscountValue.StringFixed(2),
			EndDate:       v.EndDate.Format(time.RFC3339),
		}
		if v.MinOrderValue.IsPositive() {
			view.MinOrderValue = v.MinOrderValue.StringFixed(2)
		}
		if v.MaxDiscountAmount.IsPositive() {
			view.MaxDiscountAmount = v.MaxDiscountAmount.StringFixed(2)
		}
		views[i] = view
	}
	return &ListVouchersReply{Vouchers: views}, nil
}

// HandleWalletIPN 处理钱包供应商回调
// 回调失败不暴露给终端用户，对账细节只进日志
func (s *OrderService) HandleWalletIPN(ctx context.Context, req *WalletIPNRequest) (*IPNAck, error) {
	err := s.payments.Reconcile(ctx, &biz.WalletNotification{
		PartnerCode:  req.PartnerCode,
		OrderRef:     req.OrderID,
		RequestID:    req.RequestID,
		Amount:       req.Amount,
		OrderInfo:    req.OrderInfo,
		OrderType:    req.OrderType,
		TransID:      req.TransID,
		ResultCode:   req.ResultCode,
		Message:      req.Message,
		PayType:      req.PayType,
		ResponseTime: req.ResponseTime,
		ExtraData:    req.ExtraData,
		Signature:    req.Signature,
	})
	if err != nil {
		return nil, err
	}
	return &IPNAck{Message: "ok"}, nil
}

func toOrderView(o *biz.Order) *OrderView {
	lines := make([]OrderLineView, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = OrderLineView{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UnitPrice:   l.UnitPrice.StringFixed(2),
			Quantity:    l.Quantity,
			Subtotal:    l.Subtotal.StringFixed(2),
			Reviewable:  l.Reviewable,
		}
	}
	view := &OrderView{
		OrderID:         o.ID,
		Status:          o.Status,
		Lines:           lines,
		Subtotal:        o.Subtotal.StringFixed(2),
		Vat:             o.Vat.StringFixed(2),
		ShippingFee:     o.ShippingFee.StringFixed(2),
		Discount:        o.Discount.StringFixed(2),
		TotalPrice:      o.TotalPrice.StringFixed(2),
		PaymentMethod:   o.PaymentMethod,
		VoucherCode:     o.VoucherCode,
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt.Format(time.RFC3339),
	}
	if o.Payment != nil {
		view.PaymentStatus = o.Payment.Status
	}
	return view
}
