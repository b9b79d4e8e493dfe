package server

import (
	"encoding/json"
	stdhttp "net/http"
	"strconv"

	"xinyuan_tech/order-service/internal/auth"
	"xinyuan_tech/order-service/internal/conf"
	"xinyuan_tech/order-service/internal/constants"
	biserrors "xinyuan_tech/order-service/internal/errors"
	"xinyuan_tech/order-service/internal/service"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Bootstrap, svc *service.OrderService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
		// 网关注入的身份从 Header 提取进 context
		http.Filter(identityFilter),
		http.ErrorEncoder(customErrorEncoder),
	}
	if c.Server.Http.Addr != "" {
		opts = append(opts, http.Address(c.Server.Http.Addr))
	}
	srv := http.NewServer(opts...)

	registerRoutes(srv, svc)

	// 注册健康检查端点
	srv.Route("/").GET("/health", func(ctx http.Context) error {
		return ctx.Result(200, map[string]string{"service": "order-service", "status": "ok"})
	})

	return srv
}

func registerRoutes(srv *http.Server, svc *service.OrderService) {
	r := srv.Route("/v1")

	r.POST("/orders", func(ctx http.Context) error {
		var req service.CreateOrderRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		reply, err := svc.CreateOrder(ctx.Request().Context(), &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	r.GET("/orders", func(ctx http.Context) error {
		page, _ := strconv.Atoi(ctx.Query().Get("page"))
		pageSize, _ := strconv.Atoi(ctx.Query().Get("page_size"))
		reply, err := svc.ListMyOrders(ctx.Request().Context(), page, pageSize)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	r.GET("/orders/{id}", func(ctx http.Context) error {
		orderID, err := pathID(ctx)
		if err != nil {
			return err
		}
		reply, err := svc.GetOrder(ctx.Request().Context(), orderID)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	r.POST("/orders/{id}/cancel", func(ctx http.Context) error {
		orderID, err := pathID(ctx)
		if err != nil {
			return err
		}
		if err := svc.CancelOrder(ctx.Request().Context(), orderID); err != nil {
			return err
		}
		return ctx.Result(200, map[string]string{"status": constants.OrderStatusCanceled})
	})

	r.POST("/orders/{id}/status", func(ctx http.Context) error {
		orderID, err := pathID(ctx)
		if err != nil {
			return err
		}
		var req service.AdvanceOrderStatusRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		if err := svc.AdvanceOrderStatus(ctx.Request().Context(), orderID, &req); err != nil {
			return err
		}
		return ctx.Result(200, map[string]string{"status": req.Status})
	})

	r.GET("/vouchers", func(ctx http.Context) error {
		reply, err := svc.ListVouchers(ctx.Request().Context())
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	// 供应商 IPN 回调，不走身份校验
	r.POST("/payments/wallet/ipn", func(ctx http.Context) error {
		var req service.WalletIPNRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		reply, err := svc.HandleWalletIPN(ctx.Request().Context(), &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})
}

func pathID(ctx http.Context) (uint64, error) {
	raw := ctx.Vars().Get("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, kerrors.BadRequest("INVALID_ARGUMENT", "invalid order id")
	}
	return id, nil
}

// identityFilter 将网关注入的身份 Header 写入请求 context
func identityFilter(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		if raw := r.Header.Get("X-User-Id"); raw != "" {
			if uid, err := strconv.ParseUint(raw, 10, 64); err == nil {
				role := auth.Role(r.Header.Get("X-User-Role"))
				if role == "" {
					role = auth.RoleUser
				}
				r = r.WithContext(auth.WithIdentity(r.Context(), uid, role))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func customErrorEncoder(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	se := kerrors.FromError(err)
	status := stdhttp.StatusInternalServerError
	response := map[string]interface{}{
		"code":    status,
		"message": "internal server error",
	}

	if se != nil {
		status = mapErrorStatus(int(se.Code))
		response["code"] = se.Code
		response["reason"] = se.Reason
		response["message"] = se.Message
		if len(se.Metadata) > 0 {
			response["metadata"] = se.Metadata
		}
	} else if err != nil {
		response["message"] = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

func mapErrorStatus(code int) int {
	if code >= 100 && code < 600 {
		return code
	}
	switch code {
	case biserrors.ErrCodeOrderNotFound, biserrors.ErrCodeVoucherNotFound:
		return stdhttp.StatusNotFound
	}
	if code >= 140000 && code < 150000 {
		return stdhttp.StatusBadRequest
	}
	return stdhttp.StatusInternalServerError
}
