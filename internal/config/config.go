package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppPort string
	AppURL  string

	// Database
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUsername        string
	DBPassword        string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT
	JWTSecret       string
	JWTAccessExpire time.Duration

	// Upload
	UploadMaxSize     int
	UploadPath        string
	HeaderScanRows    int
	PreviewRows       int
	MappingSessionTTL time.Duration

	// Scraping backend
	ScraperBackendURL  string
	ImageDistroURL     string
	SubmitTimeout      time.Duration
	DefaultSendToEmail string

	// Proxy health
	ProxyEndpointsFile    string
	ProxyCheckTimeout     time.Duration
	ProxyCheckConcurrency int
	ProxyPollInterval     time.Duration
	ProxyRefreshDebounce  time.Duration

	// Processing
	WorkerConcurrency int

	// Asynq
	AsynqRedisAddr     string
	AsynqRedisPassword string
	AsynqRedisDB       int
}

func Load() (*Config, error) {
	// Load .env file if exists
	// Try to load from current dir first, then parent dirs
	_ = godotenv.Load()
	_ = godotenv.Load("../../.env") // For when running from cmd/web or cmd/worker

	cfg := &Config{
		AppName: getEnv("APP_NAME", "Scraper Admin"),
		AppEnv:  getEnv("APP_ENV", "development"),
		AppPort: getEnv("APP_PORT", "8080"),
		AppURL:  getEnv("APP_URL", "http://localhost:8080"),

		DBHost:            getEnv("DB_HOST", "127.0.0.1"),
		DBPort:            getEnv("DB_PORT", "3306"),
		DBDatabase:        getEnv("DB_DATABASE", "scraper_admin"),
		DBUsername:        getEnv("DB_USERNAME", "root"),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBMaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		JWTSecret:       getEnv("JWT_SECRET", "change-this-secret-key"),
		JWTAccessExpire: getEnvAsDuration("JWT_ACCESS_EXPIRE", 24*time.Hour),

		UploadMaxSize:     getEnvAsInt("UPLOAD_MAX_SIZE", 52428800), // 50MB
		UploadPath:        getEnv("UPLOAD_PATH", "./storage/uploads"),
		HeaderScanRows:    getEnvAsInt("HEADER_SCAN_ROWS", 10),
		PreviewRows:       getEnvAsInt("PREVIEW_ROWS", 50),
		MappingSessionTTL: getEnvAsDuration("MAPPING_SESSION_TTL", 2*time.Hour),

		ScraperBackendURL:  getEnv("SCRAPER_BACKEND_URL", "https://backend-dev.iconluxury.group"),
		ImageDistroURL:     getEnv("IMAGE_DISTRO_URL", "https://dev-image-distro.popovtech.com"),
		SubmitTimeout:      getEnvAsDuration("SUBMIT_TIMEOUT", 2*time.Minute),
		DefaultSendToEmail: getEnv("DEFAULT_SEND_TO_EMAIL", ""),

		ProxyEndpointsFile:    getEnv("PROXY_ENDPOINTS_FILE", ""),
		ProxyCheckTimeout:     getEnvAsDuration("PROXY_CHECK_TIMEOUT", 10*time.Second),
		ProxyCheckConcurrency: getEnvAsInt("PROXY_CHECK_CONCURRENCY", 16),
		ProxyPollInterval:     getEnvAsDuration("PROXY_POLL_INTERVAL", 30*time.Second),
		ProxyRefreshDebounce:  getEnvAsDuration("PROXY_REFRESH_DEBOUNCE", 2*time.Second),

		WorkerConcurrency: getEnvAsInt("WORKER_CONCURRENCY", 4),

		AsynqRedisAddr:     getEnv("ASYNQ_REDIS_ADDR", "127.0.0.1:6379"),
		AsynqRedisPassword: getEnv("ASYNQ_REDIS_PASSWORD", ""),
		AsynqRedisDB:       getEnvAsInt("ASYNQ_REDIS_DB", 0),
	}

	if cfg.PreviewRows < cfg.HeaderScanRows {
		return nil, fmt.Errorf("PREVIEW_ROWS (%d) must not be smaller than HEADER_SCAN_ROWS (%d)", cfg.PreviewRows, cfg.HeaderScanRows)
	}
	if cfg.ProxyCheckConcurrency < 1 {
		cfg.ProxyCheckConcurrency = 1
	}

	return cfg, nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=Local",
		c.DBUsername,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBDatabase,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
