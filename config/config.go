package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const devJWTSecret = "agriconnect-dev-secret"

type Config struct {
	Env            string
	Port           string
	MongoURI       string
	MongoDB        string
	RedisAddr      string
	RedisPassword  string
	JWTSecret      []byte
	SessionTTL     time.Duration
	AllowedOrigins []string
	DeliveryFee    float64
	LogLevel       string
}

// Production reports whether cookies and headers should assume HTTPS.
func (c Config) Production() bool {
	return c.Env == "production"
}

// Load reads .env (if any) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found; using system environment")
	}

	cfg := Config{
		Env:            getEnv("APP_ENV", "development"),
		Port:           normalizePort(os.Getenv("PORT")),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:        getEnv("MONGO_DB", "agriconnect"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		SessionTTL:     parseDuration(os.Getenv("SESSION_TTL"), 72*time.Hour),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		DeliveryFee:    parseFloat(os.Getenv("DELIVERY_FEE"), 5.00),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if cfg.Production() {
			log.Fatal().Msg("JWT_SECRET must be set in production")
		}
		log.Warn().Msg("JWT_SECRET not set; using development secret")
		secret = devJWTSecret
	}
	cfg.JWTSecret = []byte(secret)

	return cfg
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func normalizePort(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return ":8080"
	}
	if port[0] != ':' {
		return ":" + port
	}
	return port
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		log.Warn().Str("value", s).Msg("invalid SESSION_TTL; using default")
		return fallback
	}
	return d
}

func parseFloat(s string, fallback float64) float64 {
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return fallback
	}
	return v
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
