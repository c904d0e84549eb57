package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("CSRF_KEY", "0123456789abcdef0123456789abcdef")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "wp_", cfg.TablePrefix)
	assert.True(t, cfg.TrustProxyHeaders)
	assert.Equal(t, time.Hour, cfg.SweepInterval)
	assert.False(t, cfg.SMTPEnabled())
	assert.False(t, cfg.TelegramEnabled())
	assert.False(t, cfg.RedisEnabled())
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())
}

func TestLoad_RequiresSecrets(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", "")
	t.Setenv("CSRF_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsShortCSRFKey(t *testing.T) {
	setRequired(t)
	t.Setenv("CSRF_KEY", "short")

	_, err := Load()
	assert.ErrorContains(t, err, "CSRF_KEY")
}

func TestLoad_OptionalIntegrations(t *testing.T) {
	setRequired(t)
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.SMTPEnabled())
	assert.True(t, cfg.TelegramEnabled())
	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, int64(-100123), cfg.TelegramChatID)
}
