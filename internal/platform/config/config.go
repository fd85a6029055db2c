package config

import (
	"os"
	"strings"
	"time"

	platformstrings "yinyom/pkg/platform/strings"
)

// Config captures everything the server needs from the environment so main
// stays lean. Optional backends (Postgres, Redis, Kafka) are enabled by
// presence of their setting; absence selects the in-memory implementation.
type Config struct {
	Addr string

	// PostgresDSN enables the Postgres stores when non-empty.
	PostgresDSN string

	// RedisAddr enables the active-document cache when non-empty.
	RedisAddr     string
	ActiveDocTTL  time.Duration

	// KafkaBrokers enables the Kafka audit sink when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// Admin API credentials and token signing. AdminPasswordHash is a bcrypt
	// hash; a plaintext password never enters the process.
	AdminUser         string
	AdminPasswordHash string
	JWTSigningKey     string
	TokenTTL          time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:          getenv("YINYOM_ADDR", ":8080"),
		PostgresDSN:   os.Getenv("YINYOM_POSTGRES_DSN"),
		RedisAddr:     os.Getenv("YINYOM_REDIS_ADDR"),
		ActiveDocTTL:  getenvDuration("YINYOM_ACTIVE_DOC_TTL", 5*time.Minute),
		KafkaTopic:    getenv("YINYOM_KAFKA_TOPIC", "yinyom.audit"),
		AdminUser:         getenv("YINYOM_ADMIN_USER", "admin"),
		AdminPasswordHash: os.Getenv("YINYOM_ADMIN_PASSWORD_HASH"),
		JWTSigningKey:     os.Getenv("YINYOM_JWT_SIGNING_KEY"),
		TokenTTL:          getenvDuration("YINYOM_TOKEN_TTL", 8*time.Hour),
	}
	if brokers := os.Getenv("YINYOM_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = platformstrings.DedupeAndTrimLower(strings.Split(brokers, ","))
	}
	if cfg.JWTSigningKey == "" {
		// Development default; must be overridden in production.
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
