package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Config holds the complete application configuration, loadable from
// environment variables (FLOWERSHOP_ prefix), flags, or YAML config files.
type Config struct {
	Addr string `default:"0.0.0.0:8080" usage:"API server listen address"`
	// DatabaseURL is optional. When empty the service runs entirely
	// in-memory with the builtin flower catalog.
	DatabaseURL       string   `usage:"PostgreSQL connection URL (FLOWERSHOP_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Currency          string   `default:"USD" usage:"Default checkout currency"`
	ShippingRate      string   `default:"5.99" usage:"Flat shipping rate applied once a destination is set" flag:"shipping-rate"`
	DiscountRulesFile string   `usage:"Path to a JSON discount rules file; builtin codes are used when empty" flag:"discount-rules"`
	APIKeys           []string `usage:"Hex-encoded HMAC-SHA256 hashes of accepted API keys" flag:"api-keys"`
	APIKeyPepper      string   `usage:"HMAC pepper for API key hashing (FLOWERSHOP_API_KEY_PEPPER)" flag:"api-key-pepper"`
	RateLimit         RateLimitConfig
	CORS              CORSConfig
	Graceful          GracefulConfig
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// ShippingRateDecimal parses the configured flat shipping rate.
func (c *Config) ShippingRateDecimal() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.ShippingRate)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "parse shipping rate %q", c.ShippingRate)
	}
	if rate.IsNegative() {
		return decimal.Decimal{}, errors.Errorf("shipping rate %q is negative", c.ShippingRate)
	}
	return rate, nil
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "FLOWERSHOP",
		Files:     []string{"config.yaml", "/etc/flowershop/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if _, err := cfg.ShippingRateDecimal(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's FLOWERSHOP_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
