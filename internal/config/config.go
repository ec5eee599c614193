package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	StoreMemory = "memory"
	StoreBunt   = "bunt"
	StoreRedis  = "redis"
)

type Config struct {
	Env            string        `env:"APP_ENV" envDefault:"dev"`
	HTTPAddr       string        `env:"HTTP_ADDR" envDefault:":8080"`
	PublicBaseURL  string        `env:"PUBLIC_BASE_URL" envDefault:"https://creatium-qr.vercel.app"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	CORSOrigins    []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	QRM            QRMConfig
	Page           PageConfig
	Store          StoreConfig
	Status         StatusConfig
	Logging        LoggingConfig
}

type QRMConfig struct {
	APIKey         string        `env:"QR_API_KEY"`
	BaseURL        string        `env:"QRM_BASE_URL" envDefault:"https://app.wapiserv.qrm.ooo"`
	Timeout        time.Duration `env:"QRM_TIMEOUT" envDefault:"15s"`
	QRSize         int           `env:"QRM_QR_SIZE" envDefault:"400"`
	PaymentPurpose string        `env:"QRM_PAYMENT_PURPOSE" envDefault:"Оплата услуг перевода с иностранных языков"`
}

type PageConfig struct {
	SuccessURL   string        `env:"SUCCESS_URL" envDefault:"https://perevod-rus.ru/payment-success"`
	FailURL      string        `env:"FAIL_URL" envDefault:"https://perevod-rus.ru/payment-failed"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"10s"`
	InitialDelay time.Duration `env:"POLL_INITIAL_DELAY" envDefault:"3s"`
	RedirectWait time.Duration `env:"REDIRECT_DELAY" envDefault:"5s"`
}

type StoreConfig struct {
	Driver   string        `env:"STORE_DRIVER" envDefault:"memory"`
	TTL      time.Duration `env:"STORE_TTL" envDefault:"24h"`
	RedisURL string        `env:"REDIS_URL"`
	BuntPath string        `env:"BUNT_PATH" envDefault:":memory:"`
}

// StatusConfig lists the provider codes counted as paid or pending. Any other
// code is not_paid, so STATUS_PENDING_CODES=none leaves only paid codes.
type StatusConfig struct {
	PaidCodes    []string `env:"STATUS_PAID_CODES" envSeparator:"," envDefault:"5,success,paid,completed"`
	PendingCodes []string `env:"STATUS_PENDING_CODES" envSeparator:"," envDefault:"3,created,pending,waiting"`
}

type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
	File   string `env:"LOG_FILE"`
}

// Load reads the configuration from the environment. A missing QR_API_KEY is
// not an error here: payment routes report it per request.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreMemory, StoreBunt:
	case StoreRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for STORE_DRIVER=redis")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Store.TTL <= 0 {
		return fmt.Errorf("STORE_TTL must be positive")
	}
	if c.QRM.QRSize <= 0 {
		return fmt.Errorf("QRM_QR_SIZE must be positive")
	}
	if len(c.Status.PaidCodes) == 0 {
		return fmt.Errorf("STATUS_PAID_CODES must name at least one code")
	}
	return nil
}

// HasAPIKey reports whether the provider key is configured.
func (c *Config) HasAPIKey() bool {
	return strings.TrimSpace(c.QRM.APIKey) != ""
}

func (c *Config) normalize() {
	c.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.PublicBaseURL), "/")
	c.QRM.APIKey = strings.TrimSpace(c.QRM.APIKey)
	c.QRM.BaseURL = strings.TrimRight(strings.TrimSpace(c.QRM.BaseURL), "/")
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.Store.Driver == "" {
		c.Store.Driver = StoreMemory
	}
	c.Page.PollInterval = clampDuration(c.Page.PollInterval, 10*time.Second, 15*time.Second)
	if c.Page.InitialDelay < 0 {
		c.Page.InitialDelay = 0
	}
	if c.Page.RedirectWait < 0 {
		c.Page.RedirectWait = 0
	}
	c.CORSOrigins = compact(c.CORSOrigins)
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
	c.Status.PaidCodes = compact(c.Status.PaidCodes)
	c.Status.PendingCodes = compact(c.Status.PendingCodes)
}

// compact trims every entry and drops the empty ones.
func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func clampDuration(v, lo, hi time.Duration) time.Duration {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
