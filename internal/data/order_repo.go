package data

import (
	"context"
	"errors"
	"time"

	"xinyuan_tech/order-service/internal/biz"
	"xinyuan_tech/order-service/internal/constants"
	"xinyuan_tech/order-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// orderRepo 订单仓库实现
// 订单独占其明细与支付记录，级联写入在同一事务内显式完成
type orderRepo struct {
	data *Data
	log  *log.Helper
}

// NewOrderRepo 创建订单仓库
func NewOrderRepo(data *Data, logger log.Logger) biz.OrderRepo {
	return &orderRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// Create 创建订单聚合：订单、明细、支付记录逐一写入
func (r *orderRepo) Create(ctx context.Context, order *biz.Order) error {
	db := r.data.DB(ctx)
	now := time.Now().UTC()

	m := &model.Order{
		UserID:          order.UserID,
		Status:          order.Status,
		Subtotal:        order.Subtotal,
		Vat:             order.Vat,
		ShippingFee:     order.ShippingFee,
		Discount:        order.Discount,
		TotalPrice:      order.TotalPrice,
		PaymentMethod:   order.PaymentMethod,
		VoucherCode:     order.VoucherCode,
		ShippingAddress: order.ShippingAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := db.Create(m).Error; err != nil {
		r.log.Errorf("Failed to create order: %v", err)
		return err
	}
	order.ID = m.ID
	order.CreatedAt = m.CreatedAt
	order.UpdatedAt = m.UpdatedAt

	lines := make([]*model.OrderLine, len(order.Lines))
	for i, l := range order.Lines {
		lines[i] = &model.OrderLine{
			OrderID:     m.ID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
			Subtotal:    l.Subtotal,
			Reviewable:  false,
		}
	}
	if len(lines) > 0 {
		if err := db.Create(&lines).Error; err != nil {
			r.log.Errorf("Failed to create order lines for order %d: %v", m.ID, err)
			return err
		}
		for i, lm := range lines {
			order.Lines[i].ID = lm.ID
			order.Lines[i].OrderID = m.ID
		}
	}

	if order.Payment != nil {
		pm := &model.Payment{
			OrderID:            m.ID,
			Kind:               order.Payment.Kind,
			Amount:             order.Payment.Amount,
			Status:             order.Payment.Status,
			PaymentDate:        order.Payment.PaymentDate,
			PaymentInfo:        order.Payment.PaymentInfo,
			PaymentMessage:     order.Payment.PaymentMessage,
			ProviderOrderRef:   order.Payment.ProviderOrderRef,
			ProviderRequestID:  order.Payment.ProviderRequestID,
			ProviderTransID:    order.Payment.ProviderTransID,
			ProviderResultCode: order.Payment.ProviderResultCode,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := db.Create(pm).Error; err != nil {
			r.log.Errorf("Failed to create payment for order %d: %v", m.ID, err)
			return err
		}
		order.Payment.ID = pm.ID
		order.Payment.OrderID = m.ID
		order.Payment.CreatedAt = pm.CreatedAt
	}

	return nil
}

// Get 加载订单聚合，不存在时返回 (nil, nil)
func (r *orderRepo) Get(ctx context.Context, orderID uint64) (*biz.Order, error) {
	db := r.data.DB(ctx)

	var m model.Order
	if err := db.First(&m, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Errorf("Failed to get order %d: %v", orderID, err)
		return nil, err
	}

	var lineModels []model.OrderLine
	if err := db.Where("order_id = ?", orderID).Order("order_line_id").Find(&lineModels).Error; err != nil {
		r.log.Errorf("Failed to load lines for order %d: %v", orderID, err)
		return nil, err
	}

	order := toBizOrder(&m, lineModels)

	var pm model.Payment
	err := db.First(&pm, "order_id = ?", orderID).Error
	switch {
	case err == nil:
		order.Payment = toBizPayment(&pm)
	case errors.Is(err, gorm.ErrRecordNotFound):
		// 订单可以暂时没有支付记录
	default:
		r.log.Errorf("Failed to load payment for order %d: %v", orderID, err)
		return nil, err
	}

	return order, nil
}

// ListByUser 分页查询用户订单（含明细，不含支付）
func (r *orderRepo) ListByUser(ctx context.Context, userID uint64, page, pageSize int) ([]*biz.Order, int, error) {
	db := r.data.DB(ctx)

	var total int64
	if err := db.Model(&model.Order{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orderModels []model.Order
	if err := db.Where("user_id = ?", userID).
		Order("order_id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orderModels).Error; err != nil {
		r.log.Errorf("Failed to list orders for user %d: %v", userID, err)
		return nil, 0, err
	}
	if len(orderModels) == 0 {
		return []*biz.Order{}, int(total), nil
	}

	ids := make([]uint64, len(orderModels))
	for i, om := range orderModels {
		ids[i] = om.ID
	}
	var lineModels []model.OrderLine
	if err := db.Where("order_id IN ?", ids).Order("order_line_id").Find(&lineModels).Error; err != nil {
		return nil, 0, err
	}
	linesByOrder := make(map[uint64][]model.OrderLine)
	for _, lm := range lineModels {
		linesByOrder[lm.OrderID] = append(linesByOrder[lm.OrderID], lm)
	}

	orders := make([]*biz.Order, len(orderModels))
	for i, om := range orderModels {
		orders[i] = toBizOrder(&om, linesByOrder[om.ID])
	}
	return orders, int(total), nil
}

// UpdateStatus 更新订单状态
func (r *orderRepo) UpdateStatus(ctx context.Context, orderID uint64, status string) error {
	result := r.data.DB(ctx).Model(&model.Order{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		r.log.Errorf("Failed to update status for order %d: %v", orderID, result.Error)
		return result.Error
	}
	return nil
}

// UpdatePayment 更新支付记录
func (r *orderRepo) UpdatePayment(ctx context.Context, p *biz.Payment) error {
	result := r.data.DB(ctx).Model(&model.Payment{}).
		Where("payment_id = ?", p.ID).
		Updates(map[string]interface{}{
			"status":               p.Status,
			"payment_date":         p.PaymentDate,
			"payment_info":         p.PaymentInfo,
			"payment_message":      p.PaymentMessage,
			"provider_order_ref":   p.ProviderOrderRef,
			"provider_request_id":  p.ProviderRequestID,
			"provider_trans_id":    p.ProviderTransID,
			"provider_result_code": p.ProviderResultCode,
			"updated_at":           time.Now().UTC(),
		})
	if result.Error != nil {
		r.log.Errorf("Failed to update payment %d: %v", p.ID, result.Error)
		return result.Error
	}
	return nil
}

// MarkLinesReviewable 订单送达后开放明细评价
func (r *orderRepo) MarkLinesReviewable(ctx context.Context, orderID uint64) error {
	return r.data.DB(ctx).Model(&model.OrderLine{}).
		Where("order_id = ?", orderID).
		Update("reviewable", true).Error
}

// ListStalePayments 查询早于 cutoff 仍处于 PROCESSING 的支付记录
func (r *orderRepo) ListStalePayments(ctx context.Context, olderThan time.Time) ([]*biz.Payment, error) {
	var models []model.Payment
	if err := r.data.DB(ctx).
		Where("status = ? AND created_at < ?", constants.PaymentStatusProcessing, olderThan).
		Order("payment_id").
		Find(&models).Error; err != nil {
		return nil, err
	}
	payments := make([]*biz.Payment, len(models))
	for i, pm := range models {
		payments[i] = toBizPayment(&pm)
	}
	return payments, nil
}

func toBizOrder(m *model.Order, lineModels []model.OrderLine) *biz.Order {
	lines := make([]*biz.OrderLine, len(lineModels))
	for i, lm := range lineModels {
		lines[i] = &biz.OrderLine{
			ID:          lm.ID,
			OrderID:     lm.OrderID,
			ProductID:   lm.ProductID,
			ProductName: lm.ProductName,
			UnitPrice:   lm.UnitPrice,
			Quantity:    lm.Quantity,
			Subtotal:    lm.Subtotal,
			Reviewable:  lm.Reviewable,
		}
	}
	return &biz.Order{
		ID:              m.ID,
		UserID:          m.UserID,
		Status:          m.Status,
		Lines:           lines,
		Subtotal:        m.Subtotal,
		Vat:             m.Vat,
		ShippingFee:     m.ShippingFee,
		Discount:        m.Discount,
		TotalPrice:      m.TotalPrice,
		PaymentMethod:   m.PaymentMethod,
		VoucherCode:     m.VoucherCode,
		ShippingAddress: m.ShippingAddress,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toBizPayment(pm *model.Payment) *biz.Payment {
	return &biz.Payment{
		ID:                 pm.ID,
		OrderID:            pm.OrderID,
		Kind:               pm.Kind,
		Amount:             pm.Amount,
		Status:             pm.Status,
		PaymentDate:        pm.PaymentDate,
		PaymentInfo:        pm.PaymentInfo,
		PaymentMessage:     pm.PaymentMessage,
		ProviderOrderRef:   pm.ProviderOrderRef,
		ProviderRequestID:  pm.ProviderRequestID,
		ProviderTransID:    pm.ProviderTransID,
		ProviderResultCode: pm.ProviderResultCode,
		CreatedAt:          pm.CreatedAt,
	}
}
