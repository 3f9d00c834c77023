package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	AppEnv   string
	LogLevel string

	HTTPPort int

	// Store selects the persistence backend for products, coupons and
	// orders: "memory" or "postgres". CartStore additionally accepts
	// "redis".
	Store     string
	CartStore string

	RedisAddr    string
	KafkaBrokers []string

	PGHost    string
	PGPort    int
	PGUser    string
	PGPass    string
	PGDB      string
	PGSSLMode string

	// Pricing constants, kept as decimal strings so no float conversion
	// happens before the calculator parses them.
	FreeShippingOver string
	ShippingFee      string
	TaxRate          string
}

func Load() Config {
	return Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		HTTPPort: getEnvInt("HTTP_PORT", 8080),

		Store:     getEnv("STORE_BACKEND", "memory"),
		CartStore: getEnv("CART_STORE_BACKEND", getEnv("STORE_BACKEND", "memory")),

		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers: getEnvList("KAFKA_BROKERS", nil),

		PGHost:    getEnv("PG_HOST", "localhost"),
		PGPort:    getEnvInt("PG_PORT", 5432),
		PGUser:    getEnv("PG_USER", "commerce"),
		PGPass:    getEnv("PG_PASS", "commerce"),
		PGDB:      getEnv("PG_DB", "commerce"),
		PGSSLMode: getEnv("PG_SSLMODE", "disable"),

		FreeShippingOver: getEnv("PRICING_FREE_SHIPPING_OVER", "50"),
		ShippingFee:      getEnv("PRICING_SHIPPING_FEE", "9.99"),
		TaxRate:          getEnv("PRICING_TAX_RATE", "0.08"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)

	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
