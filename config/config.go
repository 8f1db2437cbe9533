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
	Session  SessionConfig
	CORS     CORSConfig
	Payment  PaymentConfig
	Catalog  CatalogConfig
	Checkout CheckoutConfig
	Admin    AdminConfig
	S3       S3Config
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
	StaticDir   string
}

// IsProduction reports whether the server runs with NODE_ENV/ENVIRONMENT=production.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

func (s ServerConfig) IsDevelopment() bool {
	return s.Environment == "development"
}

type DatabaseConfig struct {
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

// UsePostgres is false when DB_HOST is empty; the reconciliation queue then
// lives in a local SQLite file.
func (c *DatabaseConfig) UsePostgres() bool {
	return c.Host != ""
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// KeyPrefix namespaces every key so several deployments can share a
	// Redis database.
	KeyPrefix string
}

func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

type SessionConfig struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	CartTTL    time.Duration
	IdleEvict  time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type PaymentConfig struct {
	Stripe StripeConfig
	// IntentURL points at an external create-payment-intent endpoint. Empty
	// means the in-process payment service is used.
	IntentURL string
}

type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	APIURL         string
}

type CatalogConfig struct {
	BaseURL        string
	PublicURL      string
	ConsumerKey    string
	ConsumerSecret string
	Timeout        time.Duration
	CacheTTL       time.Duration
}

type CheckoutConfig struct {
	Currency    string
	TaxRate     float64
	MaxQuantity int
	Country     string
}

type AdminConfig struct {
	TokenHash string
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	environment := getEnv("NODE_ENV", getEnv("ENVIRONMENT", "development"))
	ginMode := "debug"
	if environment == "production" {
		ginMode = "release"
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "3000"),
			GinMode:     getEnv("GIN_MODE", ginMode),
			Environment: environment,
			StaticDir:   getEnv("STATIC_DIR", "./dist"),
		},
		Database: DatabaseConfig{
			Host:       getEnv("DB_HOST", ""),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "storefront"),
			Password:   getEnv("DB_PASSWORD", ""),
			DBName:     getEnv("DB_NAME", "storefront"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("DB_SQLITE_PATH", "storefront.db"),
		},
		Redis: RedisConfig{
			Host:      getEnv("REDIS_HOST", ""),
			Port:      getEnv("REDIS_PORT", "6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        parseInt(getEnv("REDIS_DB", "0"), 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "vitaboost:"),
		},
		Session: SessionConfig{
			Secret:     getEnv("SESSION_SECRET", "change-me-session-secret"),
			TTL:        parseDuration(getEnv("SESSION_TTL", "720h"), 720*time.Hour),
			CookieName: getEnv("SESSION_COOKIE", "storefront_session"),
			CartTTL:    parseDuration(getEnv("CART_TTL", "720h"), 720*time.Hour),
			IdleEvict:  parseDuration(getEnv("CART_IDLE_EVICT", "30m"), 30*time.Minute),
		},
		CORS: CORSConfig{
			AllowedOrigins: defaultOrigins(environment, getEnv("FRONTEND_URL", "")),
		},
		Payment: PaymentConfig{
			Stripe: StripeConfig{
				SecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
				PublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", getEnv("VITE_STRIPE_PUBLISHABLE_KEY", "")),
				APIURL:         getEnv("STRIPE_API_URL", ""),
			},
			IntentURL: getEnv("PAYMENT_INTENT_URL", ""),
		},
		Catalog: CatalogConfig{
			BaseURL:        strings.TrimRight(getEnv("WOOCOMMERCE_BASE_URL", "https://precisionpeptidelab.co.uk"), "/"),
			PublicURL:      strings.TrimRight(getEnv("WOOCOMMERCE_PUBLIC_URL", ""), "/"),
			ConsumerKey:    getEnv("WOOCOMMERCE_CONSUMER_KEY", ""),
			ConsumerSecret: getEnv("WOOCOMMERCE_CONSUMER_SECRET", ""),
			Timeout:        parseDuration(getEnv("HTTP_CLIENT_TIMEOUT", "30s"), 30*time.Second),
			CacheTTL:       parseDuration(getEnv("CATALOG_CACHE_TTL", "5m"), 5*time.Minute),
		},
		Checkout: CheckoutConfig{
			Currency:    strings.ToLower(getEnv("CHECKOUT_CURRENCY", "usd")),
			TaxRate:     parseFloat(getEnv("CHECKOUT_TAX_RATE", "0.08"), 0.08),
			MaxQuantity: parseInt(getEnv("MAX_CART_QUANTITY", "10"), 10),
			Country:     getEnv("CHECKOUT_COUNTRY", "US"),
		},
		Admin: AdminConfig{
			TokenHash: getEnv("ADMIN_TOKEN_HASH", ""),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
	}

	if config.Checkout.MaxQuantity < 1 {
		return nil, fmt.Errorf("MAX_CART_QUANTITY must be at least 1, got %d", config.Checkout.MaxQuantity)
	}
	if config.Checkout.TaxRate < 0 {
		return nil, fmt.Errorf("CHECKOUT_TAX_RATE must not be negative, got %v", config.Checkout.TaxRate)
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseFloat(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		log.Printf("Invalid number %s, using default %v", s, fallback)
		return fallback
	}
	return f
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// defaultOrigins mirrors the storefront's CORS policy: an explicit
// FRONTEND_URL list wins, production is same-origin, development allows the
// Vite dev servers.
func defaultOrigins(environment, frontendURL string) []string {
	if frontendURL != "" {
		return parseSlice(frontendURL)
	}
	if environment == "production" {
		return []string{}
	}
	return []string{"http://localhost:8080", "http://localhost:5173"}
}
