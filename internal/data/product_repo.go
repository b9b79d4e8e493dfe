package data

import (
	"context"

	"xinyuan_tech/order-service/internal/biz"
	"xinyuan_tech/order-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
)

// productRepo 目录只读实现（菜品由目录服务维护，这里只读价格与可售状态）
type productRepo struct {
	data *Data
	log  *log.Helper
}

// NewProductRepo 创建目录只读仓库
func NewProductRepo(data *Data, logger log.Logger) biz.ProductRepo {
	return &productRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// GetByIDs 批量读取商品现价与可售状态
func (r *productRepo) GetByIDs(ctx context.Context, ids []uint64) (map[uint64]*biz.Product, error) {
	if len(ids) == 0 {
		return map[uint64]*biz.Product{}, nil
	}

	var models []model.Product
	if err := r.data.DB(ctx).Where("product_id IN ?", ids).Find(&models).Error; err != nil {
		r.log.Errorf("Failed to load products: %v", err)
		return nil, err
	}

	products := make(map[uint64]*biz.Product, len(models))
	for _, m := range models {
		products[m.ID] = &biz.Product{
			ID:        m.ID,
			Name:      m.Name,
			Price:     m.Price,
			Available: m.Available,
		}
	}
	return products, nil
}
