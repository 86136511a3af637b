package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Upload backends supported by the storage layer.
const (
	UploadBackendLocal = "local"
	UploadBackendS3    = "s3"
)

// DefaultJWTSecret is the development signing secret used when JWT_SECRET is unset.
const DefaultJWTSecret = "change-me"

// ErrDefaultJWTSecret is returned by Validate when production runs with the development secret.
var ErrDefaultJWTSecret = errors.New("JWT_SECRET must be set in production")

// Config holds application level configuration loaded from environment variables.
// It is built once at startup and treated as read-only afterwards.
type Config struct {
	ServerPort  string
	AppEnv      string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	SwaggerHost string
	CORSOrigins []string
	ResetDB     bool
	SeedSource  string

	// Session token and password hashing settings.
	JWTSecret      string
	TokenTTL       time.Duration
	PasswordHasher string
	BcryptCost     int
	CookieSecure   bool

	// Upload storage settings.
	UploadBackend string
	UploadDir     string
	UploadMaxSize string
	S3            S3Config
}

// S3Config configures the S3 upload backend.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PublicURL string
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return strings.HasPrefix(strings.ToLower(c.AppEnv), "prod")
}

// Validate rejects settings the service must not start with.
func (c *Config) Validate() error {
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret) {
		return ErrDefaultJWTSecret
	}
	return nil
}

// Load builds Config from environment with sensible defaults.
func Load() *Config {
	return &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		AppEnv:      getEnv("APP_ENV", "development"),
		MySQLDSN:    getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/blog?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:     getEnvInt("REDIS_DB", 0),
		RedisPass:   os.Getenv("REDIS_PASSWORD"),
		SwaggerHost: os.Getenv("SWAGGER_HOST"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		ResetDB:     getEnvBool("RESET_DB", false),
		SeedSource:  getEnv("SEED_SOURCE", "seed/posts.json"),

		JWTSecret:      getEnv("JWT_SECRET", DefaultJWTSecret),
		TokenTTL:       getEnvDuration("TOKEN_TTL", time.Hour),
		PasswordHasher: getEnv("PASSWORD_HASHER", "bcrypt"),
		BcryptCost:     getEnvInt("BCRYPT_COST", 10),
		CookieSecure:   getEnvBool("COOKIE_SECURE", false),

		UploadBackend: getEnv("UPLOAD_BACKEND", UploadBackendLocal),
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		UploadMaxSize: getEnv("UPLOAD_MAX_SIZE", "10M"),
		S3: S3Config{
			Bucket:    os.Getenv("S3_BUCKET"),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			PublicURL: os.Getenv("S3_PUBLIC_URL"),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
