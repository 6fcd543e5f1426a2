package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configはアプリ全体の設定
type Config struct {
	Port     string // サーバーポート（8080）
	GoEnv    string // dev/prod
	LogLevel string // debug/info/warn/error

	DB       DatabaseConfig
	Redis    RedisConfig
	Payment  PaymentConfig
	Mail     MailConfig
	Auth     AuthConfig
	BaseURL  string // 決済の戻り先URLを作るときの公開URL
	CacheTTL time.Duration
}

type DatabaseConfig struct {
	Driver string // postgres/mysql

	URL      string // DATABASE_URL があれば最優先
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	MySQLDSN string
}

// PostgresDSN はDATABASE_URLか個別の値から接続文字列を作る
func (c DatabaseConfig) PostgresDSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string // 空ならキャッシュ無効
	Password string
	DB       int
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type PaymentConfig struct {
	StripeSecretKey string
	Currency        string
	ProductName     string // 決済画面に出す品名
}

type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Subject  string
}

type AuthConfig struct {
	JWTSecret      string // JWT署名シークレット
	AccessTokenTTL time.Duration
}

// Loadは.envと環境変数から設定を読む
func Load(envFiles ...string) (Config, error) {
	// .envは無くてもよい
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		Port:     v.GetString("PORT"),
		GoEnv:    v.GetString("GO_ENV"),
		LogLevel: v.GetString("LOG_LEVEL"),
		BaseURL:  v.GetString("PUBLIC_BASE_URL"),
		CacheTTL: v.GetDuration("CATALOG_CACHE_TTL"),

		DB: DatabaseConfig{
			Driver:   v.GetString("DB_DRIVER"),
			URL:      v.GetString("DATABASE_URL"),
			Host:     v.GetString("POSTGRES_HOST"),
			Port:     v.GetInt("POSTGRES_PORT"),
			User:     v.GetString("POSTGRES_USER"),
			Password: v.GetString("POSTGRES_PASSWORD"),
			Name:     v.GetString("POSTGRES_DB"),
			SSLMode:  v.GetString("POSTGRES_SSLMODE"),
			MySQLDSN: v.GetString("MYSQL_DSN"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Payment: PaymentConfig{
			StripeSecretKey: v.GetString("STRIPE_SECRET_KEY"),
			Currency:        v.GetString("PAYMENT_CURRENCY"),
			ProductName:     v.GetString("PAYMENT_PRODUCT_NAME"),
		},
		Mail: MailConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
			Subject:  v.GetString("MAIL_SUBJECT"),
		},
		Auth: AuthConfig{
			JWTSecret:      v.GetString("JWT_SECRET"),
			AccessTokenTTL: v.GetDuration("ACCESS_TOKEN_TTL"),
		},
	}

	//必須チェック
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Auth.AccessTokenTTL <= 0 {
		return Config{}, fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	switch cfg.DB.Driver {
	case "postgres":
	case "mysql":
		if cfg.DB.MySQLDSN == "" {
			return Config{}, fmt.Errorf("MYSQL_DSN is required")
		}
	default:
		return Config{}, fmt.Errorf("DB_DRIVER must be postgres or mysql")
	}
	if cfg.BaseURL == "" {
		return Config{}, fmt.Errorf("PUBLIC_BASE_URL is required")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GO_ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("CATALOG_CACHE_TTL", "5m")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "postgres")
	v.SetDefault("POSTGRES_DB", "shop")
	v.SetDefault("POSTGRES_SSLMODE", "disable")

	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("PAYMENT_CURRENCY", "usd")
	v.SetDefault("PAYMENT_PRODUCT_NAME", "Purchase at TOTEMBO")

	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MAIL_SUBJECT", "You might be interested")

	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
}
