package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port         string
	DatabasePath string
	LogLevel     string

	JWTSecret   string
	TokenExpiry time.Duration

	// PublicBaseURL is the externally reachable base URL of this server,
	// used to build the webhook URL handed to the SMS relay app.
	PublicBaseURL string

	// DefaultFeeRate is applied to newly created companies when the
	// request does not specify one (e.g. 0.03 = 3%).
	DefaultFeeRate float64

	// WSWriteTimeout bounds a single push attempt to a subscriber.
	WSWriteTimeout time.Duration

	TransactionsPageLimit int

	AllowedOrigins []string

	// Bootstrap admin credentials; the seed is skipped when unset.
	AdminUsername string
	AdminPassword string
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	jwtSecret := getEnv("JWT_SECRET", "your-very-secure-and-long-jwt-secret-key-for-hs256-minimum-32-bytes")
	if jwtSecret == "your-very-secure-and-long-jwt-secret-key-for-hs256-minimum-32-bytes" {
		log.Println("WARNING: Using default insecure JWT_SECRET. Set JWT_SECRET environment variable for production.")
	}

	tokenExpiry := getEnvAsDuration("TOKEN_EXPIRY", 24*time.Hour)
	wsWriteTimeout := getEnvAsDuration("WS_WRITE_TIMEOUT", 5*time.Second)

	feeRateStr := getEnv("DEFAULT_FEE_RATE", "0.03")
	feeRate, err := strconv.ParseFloat(feeRateStr, 64)
	if err != nil || feeRate < 0 {
		log.Printf("WARNING: Invalid DEFAULT_FEE_RATE '%s'. Using default 0.03. Error (if any): %v", feeRateStr, err)
		feeRate = 0.03
	}

	originsStr := getEnv("CORS_ORIGINS", "http://localhost:3000")
	var origins []string
	for _, o := range strings.Split(originsStr, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	Cfg = &AppConfig{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./settlement.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		JWTSecret:   jwtSecret,
		TokenExpiry: tokenExpiry,

		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),

		DefaultFeeRate: feeRate,
		WSWriteTimeout: wsWriteTimeout,

		TransactionsPageLimit: getEnvAsInt("TRANSACTIONS_PAGE_LIMIT", 100),

		AllowedOrigins: origins,

		AdminUsername: getEnv("ADMIN_USERNAME", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, DefaultFeeRate=%.4f",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.DefaultFeeRate)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Duration value for %s not set or empty, using default: %s", key, fallback.String())
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
