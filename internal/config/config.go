package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	AppEnv    string `mapstructure:"app_env"`
	HTTPPort  string `mapstructure:"http_port" validate:"required,numeric"`
	LogLevel  string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"oneof=json console"`

	StoreDriver   string        `mapstructure:"store_driver" validate:"oneof=memory postgres"`
	DatabaseURL   string        `mapstructure:"database_url" validate:"required_if=StoreDriver postgres"`
	DBDriver      string        `mapstructure:"db_driver" validate:"oneof=pgx postgres"`
	DBAutoMigrate bool          `mapstructure:"db_auto_migrate"`
	StoreTimeout  time.Duration `mapstructure:"store_timeout" validate:"gt=0"`

	WebhookTimeout     time.Duration `mapstructure:"webhook_timeout" validate:"gt=0"`
	CaptureWebhookURL  string        `mapstructure:"capture_webhook_url" validate:"omitempty,http_url"`
	OutreachWebhookURL string        `mapstructure:"outreach_webhook_url" validate:"omitempty,http_url"`
	PublicOrigin       string        `mapstructure:"public_origin"`

	AdminPassword       string        `mapstructure:"admin_password"`
	AdminPasswordHash   string        `mapstructure:"admin_password_hash"`
	SessionSecret       string        `mapstructure:"session_secret"`
	SessionTTL          time.Duration `mapstructure:"session_ttl" validate:"gt=0"`
	SessionCookieSecure bool          `mapstructure:"session_cookie_secure"`

	RedisURL    string `mapstructure:"redis_url"`
	RabbitMQURL string `mapstructure:"rabbitmq_url"`

	SMTPHost       string `mapstructure:"smtp_host"`
	SMTPPort       int    `mapstructure:"smtp_port"`
	SMTPUser       string `mapstructure:"smtp_user"`
	SMTPPass       string `mapstructure:"smtp_pass"`
	AlertEmailFrom string `mapstructure:"alert_email_from"`
	AlertEmailTo   string `mapstructure:"alert_email_to"`

	SentryDSN string `mapstructure:"sentry_dsn"`

	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute" validate:"gt=0"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

var defaults = map[string]any{
	"app_env":    "development",
	"http_port":  "8080",
	"log_level":  "info",
	"log_format": "json",

	"store_driver":    StorePostgres,
	"database_url":    "",
	"db_driver":       "pgx",
	"db_auto_migrate": true,
	"store_timeout":   "5s",

	"webhook_timeout":      "10s",
	"capture_webhook_url":  "",
	"outreach_webhook_url": "",
	"public_origin":        "",

	"admin_password":        "",
	"admin_password_hash":   "",
	"session_secret":        "",
	"session_ttl":           "12h",
	"session_cookie_secure": true,

	"redis_url":    "",
	"rabbitmq_url": "",

	"smtp_host":        "",
	"smtp_port":        587,
	"smtp_user":        "",
	"smtp_pass":        "",
	"alert_email_from": "",
	"alert_email_to":   "",

	"sentry_dsn": "",

	"cors_allowed_origins":  "",
	"rate_limit_per_minute": 10,
	"shutdown_timeout":      "15s",
}

// Load lê o .env (se existir) e as variáveis de ambiente.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(viper.New())
}

// LoadFrom permite injetar uma instância do viper (testes).
func LoadFrom(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("erro ao ler configuração: %w", err)
	}

	cfg.CaptureWebhookURL = strings.TrimSpace(cfg.CaptureWebhookURL)
	cfg.OutreachWebhookURL = strings.TrimSpace(cfg.OutreachWebhookURL)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("configuração inválida: %s", strings.Join(msgs, ", "))
		}
		return err
	}
	return nil
}

// ValidateAPI cobre o que só a API precisa (painel de admin).
func (c *Config) ValidateAPI() error {
	if c.AdminPassword == "" && c.AdminPasswordHash == "" {
		return errors.New("configuração inválida: ADMIN_PASSWORD ou ADMIN_PASSWORD_HASH é obrigatório")
	}
	if len(c.SessionSecret) < 32 {
		return errors.New("configuração inválida: SESSION_SECRET precisa de pelo menos 32 caracteres")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && len(c.AlertRecipients()) > 0
}

func (c *Config) AlertRecipients() []string {
	return splitList(c.AlertEmailTo)
}

// AllowedOrigins: sem lista explícita, libera só o PUBLIC_ORIGIN.
func (c *Config) AllowedOrigins() []string {
	if origins := splitList(c.CORSAllowedOrigins); len(origins) > 0 {
		return origins
	}
	if c.PublicOrigin != "" {
		return []string{c.PublicOrigin}
	}
	return []string{"*"}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
