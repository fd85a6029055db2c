package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.PostgresDSN)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "yinyom.audit", cfg.KafkaTopic)
	assert.Equal(t, 5*time.Minute, cfg.ActiveDocTTL)
	assert.Equal(t, "admin", cfg.AdminUser)
	assert.Empty(t, cfg.AdminPasswordHash, "admin API is disabled unless a hash is provided")
	assert.Equal(t, 8*time.Hour, cfg.TokenTTL)
}

func TestFromEnvBrokerList(t *testing.T) {
	t.Setenv("YINYOM_KAFKA_BROKERS", " Kafka-1:9092 ,kafka-2:9092,KAFKA-1:9092,, ")

	cfg := FromEnv()
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}

func TestFromEnvAdminCredentials(t *testing.T) {
	t.Setenv("YINYOM_ADMIN_USER", "auditor")
	t.Setenv("YINYOM_ADMIN_PASSWORD_HASH", "$2a$10$abcdefghijklmnopqrstuv")

	cfg := FromEnv()
	assert.Equal(t, "auditor", cfg.AdminUser)
	assert.Equal(t, "$2a$10$abcdefghijklmnopqrstuv", cfg.AdminPasswordHash)
}

func TestFromEnvBadDurationFallsBack(t *testing.T) {
	t.Setenv("YINYOM_ACTIVE_DOC_TTL", "soon")

	cfg := FromEnv()
	assert.Equal(t, 5*time.Minute, cfg.ActiveDocTTL)
}
