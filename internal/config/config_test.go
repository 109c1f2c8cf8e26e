package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "clinicportal", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, ProviderSMTP, cfg.Email.Provider)
	assert.Equal(t, "inline", cfg.Notify.Transport)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 24*time.Hour, cfg.Reminder.Window)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("EMAIL_PROVIDER", "SendGrid")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("JWT_ACCESS_TTL", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Address())
	assert.Equal(t, ProviderSendGrid, cfg.Email.Provider)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTokenTTL)
}

func validConfig() *Config {
	return &Config{
		App:      AppConfig{Environment: "development"},
		Database: DatabaseConfig{SSLMode: "disable"},
		JWT:      JWTConfig{Secret: "dev-secret"},
		Email:    EmailConfig{Provider: ProviderLog},
		Notify:   NotifyConfig{Transport: "inline"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid development", func(c *Config) {}, ""},
		{"missing jwt secret", func(c *Config) { c.JWT.Secret = "" }, "JWT_SECRET is required"},
		{"short secret in production", func(c *Config) {
			c.App.Environment = "production"
			c.Database.Password = "pw"
			c.Database.SSLMode = "require"
			c.Email = EmailConfig{Provider: ProviderResend, ResendAPIKey: "re_x"}
		}, "at least 32 characters"},
		{"sslmode disable in production", func(c *Config) {
			c.App.Environment = "production"
			c.JWT.Secret = "0123456789abcdef0123456789abcdef"
			c.Database.Password = "pw"
			c.Email = EmailConfig{Provider: ProviderResend, ResendAPIKey: "re_x"}
		}, "DB_SSLMODE=disable"},
		{"db password outside development", func(c *Config) { c.App.Environment = "staging" }, "DB_PASSWORD"},
		{"unsupported provider", func(c *Config) { c.Email.Provider = "pigeon" }, `unsupported EMAIL_PROVIDER "pigeon"`},
		{"sendgrid without key", func(c *Config) { c.Email.Provider = ProviderSendGrid }, "SENDGRID_API_KEY"},
		{"smtp without host", func(c *Config) { c.Email.Provider = ProviderSMTP }, "SMTP_HOST"},
		{"kafka without brokers", func(c *Config) { c.Notify.Transport = "kafka" }, "KAFKA_BROKERS"},
		{"aws secrets without id", func(c *Config) { c.Secrets.Source = "aws" }, "SECRETS_ID"},
		{"tls without files", func(c *Config) { c.TLS.Enabled = true }, "TLS_CERT_FILE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
