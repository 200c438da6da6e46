package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort        string
	GRPCPort        string
	LogLevel        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	CatalogDBPath  string
	MigrationsPath string

	RedisAddr     string
	RedisPassword string

	MongoURI    string
	MongoDBName string

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	SessionTTL         time.Duration
	RecentlyAddedDelay time.Duration
	PaymentDelay       time.Duration
	OutboxInterval     time.Duration
	Currency           string
}

// Load reads the environment, after applying an optional .env file.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		GRPCPort:       getEnv("GRPC_PORT", "50060"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CatalogDBPath:  getEnv("DB_PATH", "./appeals.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:    getEnv("MONGO_DB_NAME", "donationdb"),
		KafkaBrokers:   splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "donation-completed"),
		KafkaGroupID:   getEnv("KAFKA_GROUP_ID", "appeal-catalog"),
		Currency:       getEnv("CURRENCY", "USD"),
	}

	durations := []struct {
		key  string
		def  string
		dest *time.Duration
	}{
		{"REQUEST_TIMEOUT", "30s", &cfg.RequestTimeout},
		{"SHUTDOWN_TIMEOUT", "10s", &cfg.ShutdownTimeout},
		{"SESSION_TTL", "30m", &cfg.SessionTTL},
		{"RECENTLY_ADDED_DELAY", "100ms", &cfg.RecentlyAddedDelay},
		{"PAYMENT_DELAY", "2s", &cfg.PaymentDelay},
		{"OUTBOX_INTERVAL", "5s", &cfg.OutboxInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dest = v
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
