package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Observ   ObservabilityConfig
	Business BusinessConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

// DatabaseConfig points at the optional archive; an empty URL disables it
type DatabaseConfig struct {
	URL string
}

// RedisConfig backs sessions, the shelf price feed and idempotency keys
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	PriceKey       string
	IdempotencyTTL time.Duration
}

// KafkaConfig enables sale events when Brokers is non-empty
type KafkaConfig struct {
	Brokers       []string
	TopicSales    string
	ConsumerGroup string
}

type ObservabilityConfig struct {
	JaegerEndpoint string
	PrometheusPort string
}

type BusinessConfig struct {
	BillPrefix             string
	EnforceStockLimit      bool
	PriceMismatchTolerance decimal.Decimal
	DefaultMinStock        int
	Timezone               string
}

type AuthConfig struct {
	AdminPIN   string
	CashierPIN string
	SessionTTL time.Duration
}

func Load() *Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	idempotencyHours, _ := strconv.Atoi(getEnv("IDEMPOTENCY_TTL_HOURS", "24"))
	enforceStock, _ := strconv.ParseBool(getEnv("ENFORCE_STOCK_LIMIT", "false"))
	defaultMinStock, _ := strconv.Atoi(getEnv("DEFAULT_MIN_STOCK", "5"))
	sessionMinutes, _ := strconv.Atoi(getEnv("SESSION_TTL_MINUTES", "720"))

	tolerance, err := decimal.NewFromString(getEnv("PRICE_MISMATCH_TOLERANCE", "0.01"))
	if err != nil {
		log.Printf("Invalid PRICE_MISMATCH_TOLERANCE, using 0.01: %v", err)
		tolerance = decimal.RequireFromString("0.01")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnv("PORT", "8080"),
			Env:      getEnv("ENV", "development"),
			LogLevel: getEnv("LOG_LEVEL", ""),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			Addr:           getEnv("REDIS_ADDR", "localhost:6379"),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             redisDB,
			PriceKey:       getEnv("REDIS_PRICE_KEY", "pos:shelf_prices"),
			IdempotencyTTL: time.Duration(idempotencyHours) * time.Hour,
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(getEnv("KAFKA_BROKERS", "")),
			TopicSales:    getEnv("KAFKA_TOPIC_SALES_EVENTS", "pos-sales-events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "pos-archive-group"),
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
			PrometheusPort: getEnv("PROMETHEUS_PORT", "9090"),
		},
		Business: BusinessConfig{
			BillPrefix:             getEnv("BILL_PREFIX", "BILL"),
			EnforceStockLimit:      enforceStock,
			PriceMismatchTolerance: tolerance,
			DefaultMinStock:        defaultMinStock,
			Timezone:               getEnv("STORE_TIMEZONE", "Asia/Kolkata"),
		},
		Auth: AuthConfig{
			AdminPIN:   getEnv("ADMIN_PIN", "123456"),
			CashierPIN: getEnv("CASHIER_PIN", "1234"),
			SessionTTL: time.Duration(sessionMinutes) * time.Minute,
		},
	}

	log.Printf("Config loaded: env=%s, port=%s, archive=%t, events=%t",
		cfg.Server.Env, cfg.Server.Port, cfg.Database.URL != "", len(cfg.Kafka.Brokers) > 0)
	return cfg
}

// Location resolves the store timezone, falling back to the server's local zone
func (b BusinessConfig) Location() *time.Location {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
