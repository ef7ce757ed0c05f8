package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL      string // あれば最優先
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string

	JWTSecret string // JWT署名シークレット

	GoEnv    string // dev/prod
	FEURL    string // フロントURL（CORS）
	LogLevel string // info/warn/error

	KafkaBrokers     []string // 空ならイベントは送らない
	OrderEventsTopic string

	LocalCartPath string // 端末ローカルのカート保存先（sqlite）

	Checkout CheckoutConfig
}

// 送料と完了後の遷移
type CheckoutConfig struct {
	FreeShippingThreshold decimal.Decimal // この金額以上は標準送料無料
	StandardShippingCost  decimal.Decimal
	ExpressShippingCost   decimal.Decimal
	RedirectDelay         time.Duration // 注文履歴へ移るまでの待ち時間
}

func DefaultCheckoutConfig() CheckoutConfig {
	return CheckoutConfig{
		FreeShippingThreshold: decimal.NewFromInt(60),
		StandardShippingCost:  decimal.RequireFromString("3.99"),
		ExpressShippingCost:   decimal.RequireFromString("7.99"),
		RedirectDelay:         3 * time.Second,
	}
}

// Loadは.env（あれば）と環境変数から読む
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	pgPort, err := atoiDefault("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: getenv("PORT", "8080"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "storefront"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		GoEnv:    getenv("GO_ENV", "dev"),
		FEURL:    os.Getenv("FE_URL"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		KafkaBrokers:     csv(os.Getenv("KAFKA_BROKERS")),
		OrderEventsTopic: getenv("ORDER_EVENTS_TOPIC", "order_events"),

		LocalCartPath: getenv("LOCAL_CART_PATH", "storefront-local.db"),

		Checkout: DefaultCheckoutConfig(),
	}

	if cfg.Checkout.FreeShippingThreshold, err = decimalEnv("SHIPPING_FREE_THRESHOLD", cfg.Checkout.FreeShippingThreshold); err != nil {
		return Config{}, err
	}
	if cfg.Checkout.StandardShippingCost, err = decimalEnv("SHIPPING_STANDARD_COST", cfg.Checkout.StandardShippingCost); err != nil {
		return Config{}, err
	}
	if cfg.Checkout.ExpressShippingCost, err = decimalEnv("SHIPPING_EXPRESS_COST", cfg.Checkout.ExpressShippingCost); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("CHECKOUT_REDIRECT_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("CHECKOUT_REDIRECT_DELAY must be duration: %w", err)
		}
		cfg.Checkout.RedirectDelay = d
	}

	return cfg, nil
}

// APIサーバーとして起動するときの必須チェック
func (c Config) ValidateServer() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	return nil
}

// DSN は DATABASE_URL があればそれを返す
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func decimalEnv(key string, def decimal.Decimal) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be number: %w", key, err)
	}
	return d, nil
}

func csv(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
