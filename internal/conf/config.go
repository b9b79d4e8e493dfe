package conf

import (
	"fmt"
	"time"
)

type Bootstrap struct {
	Server *Server `yaml:"server" json:"server"`
	Data   *Data   `yaml:"data" json:"data"`
	Client *Client `yaml:"client" json:"client"`
	Order  *Order  `yaml:"order" json:"order"`
	Log    *Log    `yaml:"log" json:"log"`
}

type Server struct {
	Http struct {
		Addr    string `yaml:"addr" json:"addr"`
		Timeout string `yaml:"timeout" json:"timeout"`
	} `yaml:"http" json:"http"`
}

type Data struct {
	Database struct {
		Driver          string `yaml:"driver" json:"driver"`
		Source          string `yaml:"source" json:"source"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	} `yaml:"database" json:"database"`
	Redis struct {
		Addr         string `yaml:"addr" json:"addr"`
		Password     string `yaml:"password" json:"password"`
		Db           int32  `yaml:"db" json:"db"`
		ReadTimeout  string `yaml:"read_timeout" json:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout" json:"write_timeout"`
		DialTimeout  string `yaml:"dial_timeout" json:"dial_timeout"`
		PoolSize     int32  `yaml:"pool_size" json:"pool_size"`
		MinIdleConns int32  `yaml:"min_idle_conns" json:"min_idle_conns"`
	} `yaml:"redis" json:"redis"`
}

type Client struct {
	Wallet *Wallet `yaml:"wallet" json:"wallet"`
}

// Wallet 外部钱包供应商配置
type Wallet struct {
	Endpoint    string `yaml:"endpoint" json:"endpoint"`
	PartnerCode string `yaml:"partner_code" json:"partner_code"`
	AccessKey   string `yaml:"access_key" json:"access_key"`
	SecretKey   string `yaml:"secret_key" json:"secret_key"`
	RedirectURL string `yaml:"redirect_url" json:"redirect_url"`
	IpnURL      string `yaml:"ipn_url" json:"ipn_url"`
	Timeout     string `yaml:"timeout" json:"timeout"`
	// MinAmount/MaxAmount 供应商侧最小单位金额限额
	MinAmount int64 `yaml:"min_amount" json:"min_amount"`
	MaxAmount int64 `yaml:"max_amount" json:"max_amount"`
	// ExchangeRate 本地货币转换为供应商货币的固定汇率（十进制字符串）
	ExchangeRate string `yaml:"exchange_rate" json:"exchange_rate"`
	Currency     string `yaml:"currency" json:"currency"`
}

// RequestTimeout 钱包调用超时时间，未配置时为 10s
func (w *Wallet) RequestTimeout() time.Duration {
	if w != nil && w.Timeout != "" {
		if d, err := time.ParseDuration(w.Timeout); err == nil {
			return d
		}
	}
	return 10 * time.Second
}

// Order 订单定价配置
type Order struct {
	// VatRate 增值税税率（十进制字符串，如 "0.10"）
	VatRate string `yaml:"vat_rate" json:"vat_rate"`
	// CodShippingFee 货到付款的固定配送费
	CodShippingFee string `yaml:"cod_shipping_fee" json:"cod_shipping_fee"`
	Currency       string `yaml:"currency" json:"currency"`
	// StalePaymentAge 超过该时长仍处于 PROCESSING 的支付记录需要人工对账
	StalePaymentAge string `yaml:"stale_payment_age" json:"stale_payment_age"`
}

// StaleAge 人工对账阈值，未配置时为 24h
func (o *Order) StaleAge() time.Duration {
	if o != nil && o.StalePaymentAge != "" {
		if d, err := time.ParseDuration(o.StalePaymentAge); err == nil {
			return d
		}
	}
	return 24 * time.Hour
}

type Log struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	Output     string `yaml:"output" json:"output"`
	FilePath   string `yaml:"file_path" json:"file_path"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// Validate validates the configuration
func (b *Bootstrap) Validate() error {
	if b.Server == nil {
		return fmt.Errorf("server configuration is required")
	}
	if b.Server.Http.Addr == "" {
		return fmt.Errorf("server.http.addr is required")
	}
	if b.Data == nil {
		return fmt.Errorf("data configuration is required")
	}
	if b.Data.Database.Source == "" {
		return fmt.Errorf("data.database.source is required")
	}
	if b.Client == nil || b.Client.Wallet == nil {
		return fmt.Errorf("client.wallet configuration is required")
	}
	w := b.Client.Wallet
	if w.Endpoint == "" || w.PartnerCode == "" || w.AccessKey == "" || w.SecretKey == "" {
		return fmt.Errorf("client.wallet endpoint/partner_code/access_key/secret_key are required")
	}
	if w.RedirectURL == "" || w.IpnURL == "" {
		return fmt.Errorf("client.wallet.redirect_url and ipn_url are required")
	}
	if w.MaxAmount > 0 && w.MinAmount > w.MaxAmount {
		return fmt.Errorf("client.wallet.min_amount must not exceed max_amount")
	}
	if b.Order == nil {
		return fmt.Errorf("order configuration is required")
	}
	if b.Order.VatRate == "" {
		return fmt.Errorf("order.vat_rate is required")
	}
	if b.Order.CodShippingFee == "" {
		return fmt.Errorf("order.cod_shipping_fee is required")
	}
	if b.Log == nil {
		return fmt.Errorf("log configuration is required")
	}
	return nil
}
