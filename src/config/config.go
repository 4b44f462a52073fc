package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DataSourceSQLite   = "sqlite"
	DataSourcePostgres = "postgres"

	defaultJWTSecret = "your-very-secure-and-long-jwt-secret-key-for-hs256-minimum-32-bytes"
)

type AppConfig struct {
	Port         string
	LogLevel     string
	DatabasePath string

	// Transactions are read from DataSource: "sqlite" uses DatabasePath,
	// "postgres" uses the POSTGRES_* settings.
	DataSource        string
	TransactionsTable string

	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     int
	PostgresDBName   string
	PostgresSSLMode  string

	JWTSecret         string
	AccessTokenExpiry time.Duration

	DatasetCacheTTL      time.Duration // 0 keeps the snapshot until invalidated
	CacheCleanupInterval time.Duration

	MaxUploadSizeBytes int64

	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string

	Timezone string
	Location *time.Location
}

var Cfg *AppConfig

// LoadConfig reads .env (if any) and the environment into Cfg.
func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")
	Cfg = FromEnv()

	if Cfg.JWTSecret == defaultJWTSecret {
		log.Println("WARNING: Using default insecure JWT_SECRET. Set JWT_SECRET environment variable for production.")
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, DataSource=%s, Table=%s, Timezone=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.DataSource, Cfg.TransactionsTable, Cfg.Timezone)
}

// FromEnv builds a config from the current environment without touching Cfg.
func FromEnv() *AppConfig {
	c := &AppConfig{
		Port:         getEnv("PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DatabasePath: getEnv("APP_DATABASE_PATH", "./settlementdash.db"),

		DataSource:        strings.ToLower(getEnv("DATA_SOURCE", DataSourceSQLite)),
		TransactionsTable: getEnv("TRANSACTIONS_TABLE", "vendas"),

		PostgresUser:     getEnv("POSTGRES_USER", ""),
		PostgresPassword: getEnvSecret("POSTGRES_PASSWORD"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnvAsInt("POSTGRES_PORT", 5432),
		PostgresDBName:   getEnv("POSTGRES_DBNAME", ""),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		JWTSecret:         getEnv("JWT_SECRET", defaultJWTSecret),
		AccessTokenExpiry: getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 8*time.Hour),

		DatasetCacheTTL:      getEnvAsDuration("DATASET_CACHE_TTL", 0),
		CacheCleanupInterval: getEnvAsDuration("CACHE_CLEANUP_INTERVAL", 30*time.Minute),

		MaxUploadSizeBytes: getEnvAsInt64("MAX_UPLOAD_SIZE_BYTES", 10*1024*1024),

		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 30),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		Timezone: getEnv("TIMEZONE", "America/Sao_Paulo"),
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("WARNING: Unknown TIMEZONE '%s', using UTC. Error: %v", c.Timezone, err)
		loc = time.UTC
	}
	c.Location = loc
	return c
}

// Validate reports every configuration problem at once.
func (c *AppConfig) Validate() error {
	var errs []error
	if len(c.JWTSecret) < 32 {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least 32 bytes long, got %d", len(c.JWTSecret)))
	}
	if c.AccessTokenExpiry <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRY must be positive"))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("APP_DATABASE_PATH is required"))
	}
	if !validTableName(c.TransactionsTable) {
		errs = append(errs, fmt.Errorf("TRANSACTIONS_TABLE %q is not a valid table name", c.TransactionsTable))
	}
	switch c.DataSource {
	case DataSourceSQLite:
	case DataSourcePostgres:
		if c.PostgresUser == "" {
			errs = append(errs, errors.New("POSTGRES_USER is required when DATA_SOURCE is postgres"))
		}
		if c.PostgresDBName == "" {
			errs = append(errs, errors.New("POSTGRES_DBNAME is required when DATA_SOURCE is postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("DATA_SOURCE must be %q or %q, got %q", DataSourceSQLite, DataSourcePostgres, c.DataSource))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	if c.MaxUploadSizeBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_SIZE_BYTES must be positive"))
	}
	return errors.Join(errs...)
}

// PostgresURL assembles the connection URL from the POSTGRES_* settings.
func (c *AppConfig) PostgresURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:   fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:   "/" + c.PostgresDBName,
	}
	q := url.Values{}
	q.Set("sslmode", c.PostgresSSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

func validTableName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getEnvSecret never logs the value.
func getEnvSecret(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		log.Printf("Environment variable %s not set", key)
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid number for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
