package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int

	// BaseURL is the public base URL of this API, used when building
	// links in responses (e.g. avatar URLs).
	BaseURL string

	// JWTSecret signs session tokens. Required.
	JWTSecret string

	// BlobBackend selects the object store: "minio" or "gcs".
	BlobBackend string

	Database DatabaseConfig
	Minio    MinioConfig
	GCS      GCSConfig
	Redis    RedisConfig
	MQ       MQConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

type GCSConfig struct {
	ProjectID       string
	CredentialsFile string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQConfig selects the event broker. Backend is "rabbitmq", "pubsub", or
// empty to disable event publishing.
type MQConfig struct {
	Backend   string
	URL       string
	ProjectID string
}

// Load reads environment variables into a Config. In dev a .env file is
// loaded first. Missing required secrets are an error, not a degraded mode.
func Load() (Config, error) {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	cfg := Config{
		ServerPort:  getEnvInt("SERVER_PORT", 8080),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		JWTSecret:   strings.TrimSpace(os.Getenv("JWT_SECRET")),
		BlobBackend: getEnv("BLOB_BACKEND", "minio"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "summittax"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "summittax_db"),
			UseSSL:   getEnvBool("DB_USE_SSL", false),
		},
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		MQ: MQConfig{
			Backend:   getEnv("MQ_BACKEND", ""),
			URL:       getEnv("MQ_URL", ""),
			ProjectID: getEnv("MQ_PROJECT_ID", ""),
		},
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.Database.Password == "" {
		return Config{}, errors.New("DB_PASSWORD is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		switch strings.ToLower(strings.TrimSpace(valueStr)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultValue
}
