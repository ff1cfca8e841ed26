package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL      string // あればPOSTGRES_*より優先
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string

	JWTSecret  string // JWT署名シークレット
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	GoEnv    string // dev/prod
	LogLevel string

	Redis    RedisConfig
	Kafka    KafkaConfig
	Jaeger   string // 空ならトレースしない
	Payment  PaymentConfig
	Media    MediaConfig
	CartSync CartSyncConfig

	RateLimitRPS   float64
	RateLimitBurst int

	// trueなら在庫不足の注文を拒否する（falseは0で止める）
	StrictStock bool

	SeedDemo      bool
	AdminEmail    string
	AdminPassword string
}

type RedisConfig struct {
	Addr     string // 空ならプロセス内ロック
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string // 空ならイベントは捨てる
	Topic   string
}

type PaymentConfig struct {
	SecretKey string // 空なら開発用ゲートウェイ
	PublicKey string
	BaseURL   string
	Currency  string
}

type MediaConfig struct {
	Backend string // cloudinary / s3

	CloudinaryCloudName    string
	CloudinaryUploadPreset string
	CloudinaryBaseURL      string

	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3PublicBaseURL string
}

type CartSyncConfig struct {
	RPS         float64
	MaxAttempts int
}

// Loadは環境変数
func Load() (Config, error) {
	cfg := Config{
		Port: os.Getenv("PORT"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		GoEnv:    getenv("GO_ENV", "dev"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getenv("KAFKA_TOPIC", "storefront.events"),
		},
		Jaeger: os.Getenv("JAEGER_ENDPOINT"),
		Payment: PaymentConfig{
			SecretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
			PublicKey: os.Getenv("PAYSTACK_PUBLIC_KEY"),
			BaseURL:   getenv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			Currency:  getenv("CURRENCY", "NGN"),
		},
		Media: MediaConfig{
			Backend:                getenv("MEDIA_BACKEND", "cloudinary"),
			CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
			CloudinaryUploadPreset: os.Getenv("CLOUDINARY_UPLOAD_PRESET"),
			CloudinaryBaseURL:      getenv("CLOUDINARY_BASE_URL", "https://api.cloudinary.com"),
			S3Bucket:               os.Getenv("S3_BUCKET"),
			S3Region:               getenv("S3_REGION", "us-east-1"),
			S3Endpoint:             os.Getenv("S3_ENDPOINT"),
			S3PublicBaseURL:        os.Getenv("S3_PUBLIC_BASE_URL"),
		},

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	var err error
	if cfg.DatabaseURL == "" {
		if cfg.PostgresPort, err = atoiOr("POSTGRES_PORT", 5432); err != nil {
			return Config{}, err
		}
	}
	if cfg.Redis.DB, err = atoiOr("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.CartSync.MaxAttempts, err = atoiOr("CART_SYNC_MAX_ATTEMPTS", 5); err != nil {
		return Config{}, err
	}
	if cfg.CartSync.RPS, err = floatOr("CART_SYNC_RPS", 20); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitRPS, err = floatOr("RATE_LIMIT_RPS", 5); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitBurst, err = atoiOr("RATE_LIMIT_BURST", 10); err != nil {
		return Config{}, err
	}
	if cfg.AccessTTL, err = durationOr("ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTTL, err = durationOr("REFRESH_TOKEN_TTL", 30*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.StrictStock, err = boolOr("STRICT_STOCK", false); err != nil {
		return Config{}, err
	}
	if cfg.SeedDemo, err = boolOr("SEED_DEMO", true); err != nil {
		return Config{}, err
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DatabaseURL == "" {
		if cfg.PostgresUser == "" {
			return Config{}, fmt.Errorf("POSTGRES_USER is required")
		}
		if cfg.PostgresPassword == "" {
			return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
		}
		if cfg.PostgresDB == "" {
			return Config{}, fmt.Errorf("POSTGRES_DB is required")
		}
		if cfg.PostgresHost == "" {
			return Config{}, fmt.Errorf("POSTGRES_HOST is required")
		}
	}
	if cfg.Media.Backend != "cloudinary" && cfg.Media.Backend != "s3" {
		return Config{}, fmt.Errorf("MEDIA_BACKEND must be cloudinary or s3")
	}

	return cfg, nil
}

// 本番か
func (c Config) IsProd() bool {
	return c.GoEnv == "prod" || c.GoEnv == "production"
}

// gormに渡すDSN
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiOr(key string, def int) (int, error) {
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

func floatOr(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return f, nil
}

func boolOr(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be true/false: %w", key, err)
	}
	return b, nil
}

func durationOr(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration like 15m", key)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
