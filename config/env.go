package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTP      HTTPConfig
	GRPC      GRPCConfig
	Redis     RedisConfig
	DB        DBConfig
	Auth      AuthConfig
	Log       LogConfig
	Kafka     KafkaConfig
	Orders    OrdersConfig
	RateLimit string
}

type HTTPConfig struct {
	Addr string
}

type GRPCConfig struct {
	// InventoryAddr is where the inventory ledger service listens.
	InventoryAddr string
	// InventoryClientAddr, when set, makes the gateway record ledger
	// transactions through the remote service instead of in-process.
	InventoryClientAddr string
}

type DBConfig struct {
	Driver string
	DSN    string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type OrdersConfig struct {
	RejectUnknownItems bool
	StrictTransitions  bool
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenTTL, err := time.ParseDuration(getEnv("JWT_TTL", "24h"))
	if err != nil {
		tokenTTL = 24 * time.Hour
	}

	return Config{
		HTTP: HTTPConfig{
			Addr: getEnv("HTTP_ADDR", ":8080"),
		},
		GRPC: GRPCConfig{
			InventoryAddr:       getEnv("INVENTORY_GRPC_ADDR", ":50052"),
			InventoryClientAddr: getEnv("INVENTORY_SERVICE_URL", ""),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		DB: DBConfig{
			Driver: getEnv("DB_DRIVER", "postgres"),
			DSN:    getEnv("DATABASE_DSN", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  tokenTTL,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
			File:   getEnv("LOG_FILE", ""),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "orders.events"),
		},
		Orders: OrdersConfig{
			RejectUnknownItems: getBool("ORDERS_REJECT_UNKNOWN_ITEMS", false),
			StrictTransitions:  getBool("ORDERS_STRICT_TRANSITIONS", false),
		},
		RateLimit: getEnv("RATE_LIMIT", "300-M"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return v
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
