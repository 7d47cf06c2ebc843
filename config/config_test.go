package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("REMINDER_CRON", "")
	t.Setenv("SMTP_HOST", "")

	cfg := LoadConfig()

	assert.Equal(t, "postgres", cfg.Store.Backend)
	assert.Equal(t, "0 0 * * *", cfg.Reminder.Cron)
	assert.Equal(t, 96*time.Hour, cfg.Reminder.LedgerTTL)
	assert.Empty(t, cfg.SMTP.Host)
	assert.Same(t, AppConfig, cfg)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("STORE_BACKEND", "mongo")
	t.Setenv("USE_REDIS", "false")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REMINDER_TIMEZONE", "Asia/Taipei")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("SEED_USERS", "a=b@example.com")

	cfg := LoadConfig()

	assert.Equal(t, "mongo", cfg.Store.Backend)
	assert.False(t, cfg.Store.UseRedis)
	assert.Equal(t, "a=b@example.com", cfg.Store.SeedUsers)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "Asia/Taipei", cfg.Reminder.Timezone)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
}

func TestGetRedisConfig_InvalidDBPanics(t *testing.T) {
	t.Setenv("REDIS_DB", "abc")
	assert.Panics(t, func() { GetRedisConfig() })
}
