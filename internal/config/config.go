package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/yukikurage/solver-marketplace-api/internal/constants"
)

type Config struct {
	DBDriver      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	RedisHost     string
	RedisPort     string
	SessionSecret string
	GinMode       string
	Port          string
	LogLevel      string
	OpenAIAPIKey  string

	// Identity provider tokens
	IdentitySigningKey string
	IdentityIssuer     string

	// bcrypt hash of the secret accepted by POST /api/admin/bootstrap
	AdminBootstrapSecretHash string

	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3PublicBaseURL string
	S3AccessKeyID   string
	S3SecretKey     string
	UploadMaxBytes  int64
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBDriver:                 getEnv("DB_DRIVER", "mysql"),
		DBHost:                   getEnv("DB_HOST", "localhost"),
		DBPort:                   getEnv("DB_PORT", "3306"),
		DBUser:                   getEnv("DB_USER", "marketuser"),
		DBPassword:               getEnv("DB_PASSWORD", "marketpassword"),
		DBName:                   getEnv("DB_NAME", "solver_marketplace"),
		RedisHost:                getEnv("REDIS_HOST", "localhost"),
		RedisPort:                getEnv("REDIS_PORT", "6379"),
		SessionSecret:            getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		GinMode:                  getEnv("GIN_MODE", "debug"),
		Port:                     getEnv("PORT", "8080"),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		OpenAIAPIKey:             getEnv("OPENAI_API_KEY", ""),
		IdentitySigningKey:       getEnv("IDENTITY_SIGNING_KEY", ""),
		IdentityIssuer:           getEnv("IDENTITY_ISSUER", ""),
		AdminBootstrapSecretHash: getEnv("ADMIN_BOOTSTRAP_SECRET_HASH", ""),
		S3Bucket:                 getEnv("S3_BUCKET", ""),
		S3Region:                 getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:               getEnv("S3_ENDPOINT", ""),
		S3PublicBaseURL:          getEnv("S3_PUBLIC_BASE_URL", ""),
		S3AccessKeyID:            getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretKey:              getEnv("S3_SECRET_ACCESS_KEY", ""),
		UploadMaxBytes:           getEnvInt64("UPLOAD_MAX_BYTES", constants.DefaultMaxUploadBytes),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed <= 0 {
		return defaultValue
	}
	return parsed
}
