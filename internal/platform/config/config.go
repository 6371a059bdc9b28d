package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration. Empty infrastructure values
// select in-memory fallbacks so a checkout runs with zero external services.
type Server struct {
	Addr               string
	Env                string
	PostgresDSN        string
	RedisURL           string
	KafkaBrokers       []string
	KafkaAuditTopic    string
	JWTSigningKey      string
	TokenTTL           time.Duration
	VendorCacheTTL     time.Duration
	CORSAllowedOrigins []string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("PAYFLOW_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	env := os.Getenv("PAYFLOW_ENV")
	if env == "" {
		env = "development"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	tokenTTL := 12 * time.Hour
	if raw := os.Getenv("TOKEN_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			tokenTTL = parsed
		}
	}

	vendorCacheTTL := 5 * time.Minute
	if raw := os.Getenv("VENDOR_CACHE_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			vendorCacheTTL = parsed
		}
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	topic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "payflow.audit"
	}

	origins := []string{"*"}
	if raw := os.Getenv("CORS_ALLOWED_ORIGINS"); raw != "" {
		origins = strings.Split(raw, ",")
	}

	return Server{
		Addr:               addr,
		Env:                env,
		PostgresDSN:        os.Getenv("POSTGRES_DSN"),
		RedisURL:           os.Getenv("REDIS_URL"),
		KafkaBrokers:       brokers,
		KafkaAuditTopic:    topic,
		JWTSigningKey:      jwtSigningKey,
		TokenTTL:           tokenTTL,
		VendorCacheTTL:     vendorCacheTTL,
		CORSAllowedOrigins: origins,
	}
}
