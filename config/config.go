package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Firebase FirebaseConfig
	Storage  StorageConfig
	AI       AIConfig
	Imaging  ImagingConfig
	Batch    BatchConfig
	App      AppConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type FirebaseConfig struct {
	Enabled         bool
	CredentialsPath string
	// ProjectID overrides the project named in the credentials file.
	ProjectID       string
}

// StorageConfig points at an S3 compatible bucket. An empty Bucket keeps
// composited images inline as data URLs.
type StorageConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
}

type AIConfig struct {
	APIKey            string
	ImageModel        string
	TextModel         string
	RequestsPerMinute int
}

type ImagingConfig struct {
	CanvasSize      int
	BackgroundHex   string
	Tolerance       int
	MinRegionPixels int
	ScanStride      int
	Padding         int
}

type BatchConfig struct {
	Workers       int
	MaxVariants   int
	PartialPolicy string
	StaleAfter    time.Duration
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			DSN:      getEnv("DB_DSN", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "nftstudio"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Firebase: FirebaseConfig{
			Enabled:         getEnvAsBool("FIREBASE_ENABLED", false),
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Region:          getEnv("S3_REGION", "auto"),
			Bucket:          getEnv("S3_BUCKET", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			PublicURL:       getEnv("S3_PUBLIC_URL", ""),
		},
		AI: AIConfig{
			APIKey:            getEnv("GEMINI_API_KEY", ""),
			ImageModel:        getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
			TextModel:         getEnv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
			RequestsPerMinute: getEnvAsInt("GEMINI_RPM", 10),
		},
		Imaging: ImagingConfig{
			CanvasSize:      getEnvAsInt("CANVAS_SIZE", 1024),
			BackgroundHex:   getEnv("SPRITE_BACKGROUND", "#b8b8b8"),
			Tolerance:       getEnvAsInt("SPRITE_TOLERANCE", 20),
			MinRegionPixels: getEnvAsInt("SPRITE_MIN_REGION", 5000),
			ScanStride:      getEnvAsInt("SPRITE_SCAN_STRIDE", 5),
			Padding:         getEnvAsInt("SPRITE_PADDING", 10),
		},
		Batch: BatchConfig{
			Workers:       getEnvAsInt("BATCH_WORKERS", 4),
			MaxVariants:   getEnvAsInt("BATCH_MAX_VARIANTS", 500),
			PartialPolicy: getEnv("BATCH_PARTIAL_POLICY", "continue"),
			StaleAfter:    getEnvAsDuration("PROJECT_STALE_AFTER", 24*time.Hour),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.DSN == "" && c.Database.Host == "" {
		return fmt.Errorf("DB_DSN or DB_HOST is required")
	}

	if c.Firebase.Enabled && c.Firebase.CredentialsPath == "" {
		return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required when FIREBASE_ENABLED=true")
	}

	if c.Imaging.CanvasSize <= 0 {
		return fmt.Errorf("CANVAS_SIZE must be positive")
	}
	if c.Imaging.ScanStride < 1 {
		return fmt.Errorf("SPRITE_SCAN_STRIDE must be at least 1")
	}
	if c.Imaging.Tolerance < 0 || c.Imaging.Padding < 0 || c.Imaging.MinRegionPixels < 0 {
		return fmt.Errorf("sprite tolerance, padding and min region must not be negative")
	}

	if c.Batch.Workers < 1 {
		return fmt.Errorf("BATCH_WORKERS must be at least 1")
	}
	switch c.Batch.PartialPolicy {
	case "continue", "fail_fast":
	default:
		return fmt.Errorf("BATCH_PARTIAL_POLICY must be continue or fail_fast, got %q", c.Batch.PartialPolicy)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
