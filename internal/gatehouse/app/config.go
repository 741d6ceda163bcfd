package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Issuer    string // Issuer claim for user access tokens
	M2MIssuer string // Issuer claim for client_credentials tokens
	BrandID   string // Default brand id stamped into user tokens

	// BrandWhitelist limits which brands tokens are verified for.
	// Empty means all brands.
	BrandWhitelist []string

	PrivateKeyPath string // Path to RSA private key PEM; empty means verify-only
	PublicKeyPath  string // Path to RSA public key PEM (required when verify-only)
	KeyID          string // kid published in JWKS

	DatabaseFile string // Path to SQLite database file (default: ./gatehouse.db)

	UserTokenTTL    time.Duration // Default user token lifetime (default: 15m)
	MaxUserTokenTTL time.Duration // Requested expiries are clamped to this (default: 1h)
	MachineTokenTTL time.Duration // client_credentials token lifetime (default: 1h)
	SessionTTL      time.Duration // Platform session lifetime (default: 24h)

	CSRFSecret string // HMAC secret for CSRF token derivation

	BootstrapClientName string // Name of the admin client seeded on first run

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	SecureCookies        bool          // Secure flag on session cookies (default: true outside dev)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	// Operators run this alongside non-Go processes that share a .env file.
	// Missing file is fine; real env vars win either way.
	_ = godotenv.Load()

	cfg := Config{
		Issuer:    getEnvOrDefault("GATEHOUSE_ISSUER", "gatehouse"),
		M2MIssuer: getEnvOrDefault("GATEHOUSE_M2M_ISSUER", "brand-platform-m2m"),
		BrandID:   getEnvOrDefault("GATEHOUSE_BRAND_ID", "brand-portal"),

		PrivateKeyPath: os.Getenv("GATEHOUSE_PRIVATE_KEY_PATH"),
		PublicKeyPath:  os.Getenv("GATEHOUSE_PUBLIC_KEY_PATH"),
		KeyID:          getEnvOrDefault("GATEHOUSE_KEY_ID", "gatehouse-1"),

		DatabaseFile: getEnvOrDefault("GATEHOUSE_DATABASE_FILE", "gatehouse.db"),

		UserTokenTTL:    getEnvDurationOrDefault("GATEHOUSE_USER_TOKEN_TTL", 15*time.Minute),
		MaxUserTokenTTL: getEnvDurationOrDefault("GATEHOUSE_MAX_USER_TOKEN_TTL", time.Hour),
		MachineTokenTTL: getEnvDurationOrDefault("GATEHOUSE_MACHINE_TOKEN_TTL", time.Hour),
		SessionTTL:      getEnvDurationOrDefault("GATEHOUSE_SESSION_TTL", 24*time.Hour),

		CSRFSecret: os.Getenv("GATEHOUSE_CSRF_SECRET"),

		BootstrapClientName: getEnvOrDefault("GATEHOUSE_BOOTSTRAP_CLIENT_NAME", "gatehouse-admin"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if whitelist := os.Getenv("GATEHOUSE_BRAND_WHITELIST"); whitelist != "" {
		for _, b := range strings.Split(whitelist, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.BrandWhitelist = append(cfg.BrandWhitelist, b)
			}
		}
	}

	cfg.SecureCookies = cfg.Env != "dev"
	if v := os.Getenv("GATEHOUSE_SECURE_COOKIES"); v != "" {
		cfg.SecureCookies = v == "true" || v == "1"
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Integer seconds are accepted too
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
