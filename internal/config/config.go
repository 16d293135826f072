package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Host string
	Port string

	// Database settings
	DatabasePath string

	// Logging settings
	LogLevel  string
	LogFormat string

	// Cache settings
	CacheSize int
	CacheTTL  time.Duration

	// Court settings
	CourtBaseURL string
	CourtName    string

	// Additional portal settings
	DistrictBaseURL   string
	DistrictName      string
	EstablishmentCode string
	SupremeBaseURL    string

	// Scraper settings
	ScraperTimeout time.Duration
	HeadlessMode   bool
	UserAgent      string
	BrowserPath    string

	// CAPTCHA settings
	CaptchaMaxAttempts  int
	CaptchaAttemptDelay time.Duration
	TwoCaptchaKey       string
	AntiCaptchaKey      string
	OraclePollBudget    int

	// Blob storage settings
	BlobBackend    string // "minio" or "local"
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	DocumentDir    string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Not an error if .env doesn't exist
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		Host:              getEnv("HOST", "0.0.0.0"),
		Port:              getEnv("PORT", "8080"),
		DatabasePath:      getEnv("DATABASE_PATH", "./data/court_cases.db"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		CourtBaseURL:      getEnv("COURT_BASE_URL", "https://delhihighcourt.nic.in"),
		CourtName:         getEnv("COURT_NAME", "Delhi High Court"),
		DistrictBaseURL:   getEnv("DISTRICT_BASE_URL", "https://districts.ecourts.gov.in/delhi"),
		DistrictName:      getEnv("DISTRICT_NAME", "Delhi"),
		EstablishmentCode: getEnv("ESTABLISHMENT_CODE", ""),
		SupremeBaseURL:    getEnv("SUPREME_BASE_URL", "https://www.sci.gov.in"),
		UserAgent:         getEnv("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
		BrowserPath:       getEnv("ROD_BROWSER_PATH", ""),
		TwoCaptchaKey:     getEnv("TWOCAPTCHA_API_KEY", ""),
		AntiCaptchaKey:    getEnv("ANTICAPTCHA_API_KEY", ""),
		BlobBackend:       getEnv("BLOB_BACKEND", "local"),
		MinioEndpoint:     getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:    getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:    getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:       getEnv("MINIO_BUCKET", "court-documents"),
		MinioUseSSL:       getEnv("MINIO_USE_SSL", "false") == "true",
		DocumentDir:       getEnv("DOCUMENT_DIR", "./data/documents"),
	}

	// Parse integer values
	var err error
	cfg.CacheSize, err = strconv.Atoi(getEnv("CACHE_SIZE", "1000"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_SIZE: %w", err)
	}

	cacheTTL, err := strconv.Atoi(getEnv("CACHE_TTL", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	cfg.CacheTTL = time.Duration(cacheTTL) * time.Minute

	scraperTimeout, err := strconv.Atoi(getEnv("SCRAPER_TIMEOUT", "120"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCRAPER_TIMEOUT: %w", err)
	}
	cfg.ScraperTimeout = time.Duration(scraperTimeout) * time.Second

	cfg.HeadlessMode = getEnv("HEADLESS_MODE", "true") == "true"

	cfg.CaptchaMaxAttempts, err = strconv.Atoi(getEnv("CAPTCHA_MAX_ATTEMPTS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid CAPTCHA_MAX_ATTEMPTS: %w", err)
	}

	attemptDelay, err := strconv.Atoi(getEnv("CAPTCHA_ATTEMPT_DELAY", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid CAPTCHA_ATTEMPT_DELAY: %w", err)
	}
	cfg.CaptchaAttemptDelay = time.Duration(attemptDelay) * time.Second

	cfg.OraclePollBudget, err = strconv.Atoi(getEnv("ORACLE_POLL_BUDGET", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid ORACLE_POLL_BUDGET: %w", err)
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
