package data

import (
	"context"
	"strconv"

	"xinyuan_tech/order-service/internal/biz"
	"xinyuan_tech/order-service/internal/constants"

	"github.com/go-kratos/kratos/v2/log"
)

// cartRepo 购物车实现
// 购物车是 Redis 中按用户维度的 hash：field=商品ID, value=数量
// 购物车的增删改由 cart 服务负责，本服务只在结算时读取、在下单成功后清空
type cartRepo struct {
	data *Data
	log  *log.Helper
}

// NewCartRepo 创建购物车仓库
func NewCartRepo(data *Data, logger log.Logger) biz.CartRepo {
	return &cartRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func cartKey(userID uint64) string {
	return constants.CartKeyPrefix + strconv.FormatUint(userID, 10)
}

// GetCart 读取服务端持有的购物车行
func (r *cartRepo) GetCart(ctx context.Context, userID uint64) ([]*biz.CartLine, error) {
	fields, err := r.data.rdb.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		r.log.Errorf("Failed to load cart for user %d: %v", userID, err)
		return nil, err
	}

	lines := make([]*biz.CartLine, 0, len(fields))
	for field, value := range fields {
		productID, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			r.log.Warnf("Skipping malformed cart field %q for user %d", field, userID)
			continue
		}
		qty, err := strconv.Atoi(value)
		if err != nil {
			r.log.Warnf("Skipping malformed cart quantity %q for user %d", value, userID)
			continue
		}
		lines = append(lines, &biz.CartLine{ProductID: productID, Quantity: qty})
	}
	return lines, nil
}

// ClearCart 下单成功后清空购物车
func (r *cartRepo) ClearCart(ctx context.Context, userID uint64) error {
	return r.data.rdb.Del(ctx, cartKey(userID)).Err()
}
