package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func memoryEnvs() map[string]string {
	return map[string]string{
		"STORE_DRIVER":         "memory",
		"DATABASE_URL":         "",
		"CAPTURE_WEBHOOK_URL":  "",
		"OUTREACH_WEBHOOK_URL": "",
		"CORS_ALLOWED_ORIGINS": "",
		"PUBLIC_ORIGIN":        "",
		"ALERT_EMAIL_TO":       "",
		"SMTP_HOST":            "",
	}
}

// TestLoadDefaults - Só o driver em memória já basta para subir
func TestLoadDefaults(t *testing.T) {
	setEnvs(t, memoryEnvs())

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 10*time.Second, cfg.WebhookTimeout)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10, cfg.RateLimitPerMinute)
	assert.True(t, cfg.SessionCookieSecure)
	assert.False(t, cfg.SMTPEnabled())
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
}

// TestLoadFromEnv - Variáveis de ambiente sobrescrevem os padrões
func TestLoadFromEnv(t *testing.T) {
	envs := memoryEnvs()
	envs["HTTP_PORT"] = "9090"
	envs["WEBHOOK_TIMEOUT"] = "3s"
	envs["SESSION_COOKIE_SECURE"] = "false"
	envs["CAPTURE_WEBHOOK_URL"] = "  https://n8n.test/webhook/capture  "
	envs["PUBLIC_ORIGIN"] = "https://ligue.test"
	envs["SMTP_HOST"] = "smtp.test"
	envs["ALERT_EMAIL_TO"] = "a@ligue.test, b@ligue.test,"
	setEnvs(t, envs)

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 3*time.Second, cfg.WebhookTimeout)
	assert.False(t, cfg.SessionCookieSecure)
	assert.Equal(t, "https://n8n.test/webhook/capture", cfg.CaptureWebhookURL)
	assert.Equal(t, []string{"https://ligue.test"}, cfg.AllowedOrigins())
	assert.Equal(t, []string{"a@ligue.test", "b@ligue.test"}, cfg.AlertRecipients())
	assert.True(t, cfg.SMTPEnabled())
}

// TestLoadValidation - Configuração inconsistente não sobe
func TestLoadValidation(t *testing.T) {
	cases := map[string]map[string]string{
		"postgres sem DATABASE_URL": {"STORE_DRIVER": "postgres"},
		"driver desconhecido":       {"STORE_DRIVER": "mongo"},
		"webhook relativo":          {"CAPTURE_WEBHOOK_URL": "/hooks/capture"},
		"log level inválido":        {"LOG_LEVEL": "verbose"},
		"porta não numérica":        {"HTTP_PORT": "http"},
	}

	for name, override := range cases {
		t.Run(name, func(t *testing.T) {
			envs := memoryEnvs()
			for k, v := range override {
				envs[k] = v
			}
			setEnvs(t, envs)

			_, err := LoadFrom(viper.New())
			assert.Error(t, err)
		})
	}
}

// TestValidateAPI - Painel exige senha e segredo de sessão forte
func TestValidateAPI(t *testing.T) {
	cfg := &Config{SessionSecret: "0123456789abcdef0123456789abcdef"}
	assert.Error(t, cfg.ValidateAPI())

	cfg.AdminPassword = "painel"
	assert.NoError(t, cfg.ValidateAPI())

	cfg.SessionSecret = "short"
	assert.Error(t, cfg.ValidateAPI())
}

// TestNewLogger
func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", "console")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger("loud", "json")
	assert.Error(t, err)
}
