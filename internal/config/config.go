package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DBConfig struct {
		Host     string `env:"POS_DB_HOST"`
		Port     int    `env:"POS_DB_PORT"`
		User     string `env:"POS_DB_USER"`
		Password string `env:"POS_DB_PASSWORD"`
		Name     string `env:"POS_DB_NAME"`
		SSLMode  string `env:"POS_DB_SSLMODE"`
	}

	HTTPPort int `env:"POS_HTTP_PORT"`

	KafkaBrokerURL      string `env:"KAFKA_BROKER_URL"`
	KafkaCompletedTopic string `env:"KAFKA_COMPLETED_TOPIC"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`

	MigrationsPath string `env:"POS_MIGRATIONS_PATH"`

	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL"`
	OutboxPollTimeout  time.Duration `env:"OUTBOX_POLL_TIMEOUT"`

	CardApproveRate    float64       `env:"CARD_APPROVE_RATE"`
	CardFeeBasisPoints int64         `env:"CARD_FEE_BASIS_POINTS"`
	ReversalAttempts   int           `env:"REVERSAL_ATTEMPTS"`
	ReversalBackoff    time.Duration `env:"REVERSAL_BACKOFF"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	cfg.DBConfig.Host = getEnvOrDefault("POS_DB_HOST", "localhost")
	cfg.DBConfig.Port = getEnvAsInt("POS_DB_PORT", 5432)
	cfg.DBConfig.User = getEnvOrDefault("POS_DB_USER", "user")
	cfg.DBConfig.Password = getEnvOrDefault("POS_DB_PASSWORD", "password")
	cfg.DBConfig.Name = getEnvOrDefault("POS_DB_NAME", "pos_payments_db")
	cfg.DBConfig.SSLMode = getEnvOrDefault("POS_DB_SSLMODE", "disable")

	cfg.HTTPPort = getEnvAsInt("POS_HTTP_PORT", 8083)

	cfg.KafkaBrokerURL = getEnvOrDefault("KAFKA_BROKER_URL", "localhost:9092")
	cfg.KafkaCompletedTopic = getEnvOrDefault("KAFKA_COMPLETED_TOPIC", "payment_transactions_completed")

	cfg.RedisAddr = getEnvOrDefault("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnvOrDefault("REDIS_PASSWORD", "")
	cfg.RedisDB = getEnvAsInt("REDIS_DB", 0)

	cfg.MigrationsPath = getEnvOrDefault("POS_MIGRATIONS_PATH", "file://migrations")

	cfg.OutboxPollInterval = getEnvAsDuration("OUTBOX_POLL_INTERVAL", 1*time.Second)
	cfg.OutboxPollTimeout = getEnvAsDuration("OUTBOX_POLL_TIMEOUT", 500*time.Millisecond)

	cfg.CardApproveRate = getEnvAsFloat("CARD_APPROVE_RATE", 0.95)
	cfg.CardFeeBasisPoints = int64(getEnvAsInt("CARD_FEE_BASIS_POINTS", 250))
	cfg.ReversalAttempts = getEnvAsInt("REVERSAL_ATTEMPTS", 3)
	cfg.ReversalBackoff = getEnvAsDuration("REVERSAL_BACKOFF", 100*time.Millisecond)

	if cfg.CardApproveRate < 0 || cfg.CardApproveRate > 1 {
		return nil, fmt.Errorf("CARD_APPROVE_RATE must be between 0 and 1, got %v", cfg.CardApproveRate)
	}
	return cfg, nil
}

func (c *Config) GetDBMigrationConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBConfig.User, c.DBConfig.Password, c.DBConfig.Host, c.DBConfig.Port, c.DBConfig.Name, c.DBConfig.SSLMode)
}

func (c *Config) GetKafkaBrokers() []string {
	return strings.Split(c.KafkaBrokerURL, ",")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
