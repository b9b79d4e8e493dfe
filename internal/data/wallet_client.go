package data

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"xinyuan_tech/order-service/internal/biz"
	"xinyuan_tech/order-service/internal/conf"
	"xinyuan_tech/order-service/internal/constants"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-resty/resty/v2"
)

// walletClient 钱包供应商客户端实现（防腐层）
// 出站请求与入站回调都使用固定字段序的规范参数串做 HMAC-SHA256 签名
type walletClient struct {
	http *resty.Client
	cfg  *conf.Wallet
	log  *log.Helper
}

// NewWalletClient 创建钱包供应商客户端
func NewWalletClient(c *conf.Bootstrap, logger log.Logger) (biz.WalletClient, error) {
	cfg := c.Client.Wallet
	httpClient := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(cfg.RequestTimeout()).
		SetHeader("Content-Type", "application/json")

	return &walletClient{
		http: httpClient,
		cfg:  cfg,
		log:  log.NewHelper(logger),
	}, nil
}

// createPaymentBody 发往供应商的请求体
type createPaymentBody struct {
	PartnerCode string `json:"partnerCode"`
	AccessKey   string `json:"accessKey"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IpnURL      string `json:"ipnUrl"`
	RequestType string `json:"requestType"`
	ExtraData   string `json:"extraData"`
	Signature   string `json:"signature"`
}

// createPaymentResponse 供应商同步响应
type createPaymentResponse struct {
	PartnerCode string `json:"partnerCode"`
	OrderID     string `json:"orderId"`
	RequestID   string `json:"requestId"`
	PayURL      string `json:"payUrl"`
	ResultCode  int    `json:"resultCode"`
	Message     string `json:"message"`
}

// CreatePayment 调用供应商创建一笔待支付交易
func (c *walletClient) CreatePayment(ctx context.Context, req *biz.WalletCreateRequest) (*biz.WalletCreateResult, error) {
	body := &createPaymentBody{
		PartnerCode: c.cfg.PartnerCode,
		AccessKey:   c.cfg.AccessKey,
		RequestID:   req.RequestID,
		Amount:      req.Amount,
		OrderID:     req.OrderRef,
		OrderInfo:   req.OrderInfo,
		RedirectURL: c.cfg.RedirectURL,
		IpnURL:      c.cfg.IpnURL,
		RequestType: constants.WalletRequestType,
		ExtraData:   "",
	}
	body.Signature = c.sign(createRawSignature(body))

	var result createPaymentResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post("/create")
	if err != nil {
		return nil, fmt.Errorf("wallet create request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("wallet provider returned HTTP %d: %s", resp.StatusCode(), resp.String())
	}

	return &biz.WalletCreateResult{
		PayURL:     result.PayURL,
		ResultCode: result.ResultCode,
		Message:    result.Message,
	}, nil
}

// VerifyNotification 用回调自身字段重算规范参数串并比对签名
func (c *walletClient) VerifyNotification(n *biz.WalletNotification) bool {
	expected := c.sign(notificationRawSignature(c.cfg.AccessKey, n))
	return hmac.Equal([]byte(expected), []byte(n.Signature))
}

// sign 对规范参数串做 HMAC-SHA256，输出十六进制小写
func (c *walletClient) sign(raw string) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.SecretKey))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// createRawSignature 出站请求的规范参数串（字段序固定，&拼接）
func createRawSignature(b *createPaymentBody) string {
	return "accessKey=" + b.AccessKey +
		"&amount=" + strconv.FormatInt(b.Amount, 10) +
		"&extraData=" + b.ExtraData +
		"&ipnUrl=" + b.IpnURL +
		"&orderId=" + b.OrderID +
		"&orderInfo=" + b.OrderInfo +
		"&partnerCode=" + b.PartnerCode +
		"&redirectUrl=" + b.RedirectURL +
		"&requestId=" + b.RequestID +
		"&requestType=" + b.RequestType
}

// notificationRawSignature 回调的规范参数串，只使用回调回显字段
func notificationRawSignature(accessKey string, n *biz.WalletNotification) string {
	return "accessKey=" + accessKey +
		"&amount=" + strconv.FormatInt(n.Amount, 10) +
		"&extraData=" + n.ExtraData +
		"&message=" + n.Message +
		"&orderId=" + n.OrderRef +
		"&orderInfo=" + n.OrderInfo +
		"&orderType=" + n.OrderType +
		"&partnerCode=" + n.PartnerCode +
		"&payType=" + n.PayType +
		"&requestId=" + n.RequestID +
		"&responseTime=" + strconv.FormatInt(n.ResponseTime, 10) +
		"&resultCode=" + strconv.Itoa(n.ResultCode) +
		"&transId=" + strconv.FormatInt(n.TransID, 10)
}
