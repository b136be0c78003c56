package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures process-level configuration. Values come from the
// environment so main stays lean; a .env file is honored for local dev.
type Config struct {
	Addr          string
	DatabaseURL   string
	Redis         RedisConfig
	Kafka         KafkaConfig
	JWTSigningKey string
	JWTIssuer     string

	// GatewayURL is the payment gateway verification endpoint. Empty means
	// the gateway verifier is disabled and admin verification stands alone.
	GatewayURL     string
	GatewaySecret  string
	GatewayTimeout time.Duration

	// DBMaxOpenConns bounds the shared pool; sized for scan bursts during
	// meal windows.
	DBMaxOpenConns int
	DBMaxIdleConns int
}

// RedisConfig controls the settings cache client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig controls the revalidation hook producer. Empty brokers disable it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	// Missing .env is fine outside local dev.
	_ = godotenv.Load()

	cfg := Config{
		Addr:           getEnv("SUMMIT_ADDR", ":8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSigningKey:  getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:      getEnv("JWT_ISSUER", "napps-summit"),
		GatewayURL:     os.Getenv("PAYMENT_GATEWAY_URL"),
		GatewaySecret:  os.Getenv("PAYMENT_GATEWAY_SECRET"),
		GatewayTimeout: getDuration("PAYMENT_GATEWAY_TIMEOUT", 10*time.Second),
		DBMaxOpenConns: getInt("DB_MAX_OPEN_CONNS", 40),
		DBMaxIdleConns: getInt("DB_MAX_IDLE_CONNS", 10),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Topic: getEnv("KAFKA_REVALIDATION_TOPIC", "summit.state-changes"),
		},
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
