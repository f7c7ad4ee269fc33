// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	S3          S3Config
	Kafka       KafkaConfig
	External    ExternalConfig
	App         AppConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	BucketPublic    string
	BucketPrivate   string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// ExternalConfig holds the URLs of the upstream services the status engine
// pulls from when assembling an enriched product snapshot.
type ExternalConfig struct {
	SellerServiceURL    string
	InventoryServiceURL string
	RequestTimeout      int // seconds
}

type AppConfig struct {
	JWTSecret     string
	DocsAPIKey    string
	CacheTTL      int // seconds
	PageSize      int
	MaxPageSize   int
	MaxImageBytes int64
	MaxDocBytes   int64
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "products"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		S3: S3Config{
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Region:          getEnv("S3_REGION", "ru-1"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			BucketPublic:    getEnv("S3_BUCKET_PUBLIC", "products-public"),
			BucketPrivate:   getEnv("S3_BUCKET_PRIVATE", "products-private"),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			Topic:   getEnv("KAFKA_TOPIC", "products.updated"),
		},
		External: ExternalConfig{
			SellerServiceURL:    getEnv("SELLER_SERVICE_URL", "http://sellers/api/v1/users/check-token"),
			InventoryServiceURL: getEnv("INVENTORY_SERVICE_URL", "http://storage/api/v1/quantity"),
			RequestTimeout:      getEnvAsInt("EXTERNAL_REQUEST_TIMEOUT", 10),
		},
		App: AppConfig{
			JWTSecret:     getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			DocsAPIKey:    getEnv("DOCS_API_KEY", ""),
			CacheTTL:      getEnvAsInt("CACHE_TTL", 86400),
			PageSize:      getEnvAsInt("PAGE_SIZE", 10),
			MaxPageSize:   getEnvAsInt("MAX_PAGE_SIZE", 100),
			MaxImageBytes: int64(getEnvAsInt("MAX_IMAGE_MB", 10)) * 1024 * 1024,
			MaxDocBytes:   int64(getEnvAsInt("MAX_DOCUMENT_MB", 20)) * 1024 * 1024,
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.App.JWTSecret == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if len(c.Kafka.Brokers) == 0 || c.Kafka.Brokers[0] == "" {
		return fmt.Errorf("at least one kafka broker is required")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
