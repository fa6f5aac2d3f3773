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

// SetupError reports backend connection parameters that are missing or still
// carry sample placeholder values. Startup is blocked while any remain; no
// code path bypasses the gate.
type SetupError struct {
	Vars []string
}

func (e *SetupError) Error() string {
	return "setup incomplete, configure: " + strings.Join(e.Vars, ", ")
}

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Firebase   FirebaseConfig
	Storage    StorageConfig
	Extraction ExtractionConfig
	Export     ExportConfig
	App        AppConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type FirebaseConfig struct {
	ProjectID       string
	CredentialsPath string
	WebAPIKey       string
	StorageBucket   string
}

type StorageConfig struct {
	Backend  string // "gcs" or "s3"
	S3Bucket string
	S3Region string
}

type ExtractionConfig struct {
	Engine          string // "stub" or "claude"
	AnthropicAPIKey string
	AnthropicModel  string
}

type ExportConfig struct {
	SignedURLTTL  time.Duration
	RetentionDays int
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
			AllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "furniscan"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Firebase: FirebaseConfig{
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			WebAPIKey:       getEnv("FIREBASE_WEB_API_KEY", ""),
			StorageBucket:   getEnv("FIREBASE_STORAGE_BUCKET", ""),
		},
		Storage: StorageConfig{
			Backend:  getEnv("STORAGE_BACKEND", "gcs"),
			S3Bucket: getEnv("S3_BUCKET", ""),
			S3Region: getEnv("S3_REGION", ""),
		},
		Extraction: ExtractionConfig{
			Engine:          getEnv("EXTRACTION_ENGINE", "stub"),
			AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
			AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
		},
		Export: ExportConfig{
			SignedURLTTL:  time.Duration(getEnvAsInt("EXPORT_URL_TTL_HOURS", 24)) * time.Hour,
			RetentionDays: getEnvAsInt("EXPORT_RETENTION_DAYS", 7),
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

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	switch c.Storage.Backend {
	case "gcs", "s3":
	default:
		return fmt.Errorf("STORAGE_BACKEND must be gcs or s3, got %q", c.Storage.Backend)
	}

	switch c.Extraction.Engine {
	case "stub":
	case "claude":
		if c.Extraction.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when EXTRACTION_ENGINE=claude")
		}
	default:
		return fmt.Errorf("EXTRACTION_ENGINE must be stub or claude, got %q", c.Extraction.Engine)
	}

	var missing []string
	check := func(name, value string) {
		if value == "" || isPlaceholder(value) {
			missing = append(missing, name)
		}
	}
	check("FIREBASE_PROJECT_ID", c.Firebase.ProjectID)
	check("FIREBASE_CREDENTIALS_PATH", c.Firebase.CredentialsPath)
	check("FIREBASE_WEB_API_KEY", c.Firebase.WebAPIKey)
	if c.Storage.Backend == "gcs" {
		check("FIREBASE_STORAGE_BUCKET", c.Firebase.StorageBucket)
	} else {
		check("S3_BUCKET", c.Storage.S3Bucket)
		check("S3_REGION", c.Storage.S3Region)
	}
	if len(missing) > 0 {
		return &SetupError{Vars: missing}
	}

	return nil
}

// isPlaceholder catches values copied straight out of the sample .env
// ("your-project-id", "YOUR_API_KEY", "changeme").
func isPlaceholder(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return strings.HasPrefix(s, "your-") ||
		strings.HasPrefix(s, "your_") ||
		s == "changeme" ||
		s == "todo" ||
		strings.Contains(s, "xxxx")
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

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
