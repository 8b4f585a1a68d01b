package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// DocumentConfig bounds uploads and sizes the metadata cache.
type DocumentConfig struct {
	MaxUploadBytes int64
	CacheSize      int
	CacheTTL       time.Duration
}

// GraderConfig configures the LLM that scores answers.
type GraderConfig struct {
	OllamaURL   string
	Model       string
	Temperature float64
	RatePerSec  float64
	Burst       int
}

// ClientConfig is read by the aplus command line client.
type ClientConfig struct {
	APIURL string
	// Timeout bounds every transfer; zero leaves it to the transport.
	Timeout time.Duration
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost   string
	Port      string
	Database  DatabaseConfig
	MinIO     MinIOConfig
	Documents DocumentConfig
	Grader    GraderConfig
	Client    ClientConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Documents: DocumentConfig{
			MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 20<<20)),
			CacheSize:      getEnvInt("DOC_CACHE_SIZE", 256),
			CacheTTL:       getEnvDuration("DOC_CACHE_TTL", 5*time.Minute),
		},
		Grader: GraderConfig{
			OllamaURL:   getEnv("GRADER_OLLAMA_URL", "http://localhost:11434"),
			Model:       getEnv("GRADER_MODEL", "llama3"),
			Temperature: getEnvFloat("GRADER_TEMPERATURE", 0.2),
			RatePerSec:  getEnvFloat("GRADER_RATE_PER_SEC", 1),
			Burst:       getEnvInt("GRADER_BURST", 2),
		},
		Client: ClientConfig{
			APIURL:  getEnv("APLUS_API_URL", "http://localhost:8080"),
			Timeout: getEnvDuration("APLUS_TIMEOUT", 0),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

// getEnvDuration accepts Go duration strings ("30s", "2m").
func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
