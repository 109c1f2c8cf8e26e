package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Log       LogConfig
	Tracing   TracingConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Email     EmailConfig
	Notify    NotifyConfig
	Kafka     KafkaConfig
	Reminder  ReminderConfig
	Secrets   SecretsConfig
	TLS       TLSConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Version     string
	// BaseURL is used for links in outgoing email.
	BaseURL string
}

func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host               string
	Port               int
	Name               string
	User               string
	Password           string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	SlowQueryThreshold time.Duration
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
}

type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
}

type TracingConfig struct {
	Enabled      bool
	ServiceName  string
	OTLPEndpoint string
	Insecure     bool
	SampleRate   float64
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

type RateLimitConfig struct {
	// Global rate limit per IP
	RequestsPerSecond float64
	BurstSize         int
	// Auth endpoints have stricter limits
	AuthRequestsPerMinute int
}

type EmailConfig struct {
	Provider       string
	From           string
	ClinicName     string
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
	SendGridAPIKey string
	ResendAPIKey   string
	SendTimeout    time.Duration

	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

const (
	ProviderSMTP     = "smtp"
	ProviderSendGrid = "sendgrid"
	ProviderResend   = "resend"
	ProviderLog      = "log"
)

type NotifyConfig struct {
	// Transport is "inline" (in-process queue) or "kafka".
	Transport string
	Workers   int
	QueueSize int
}

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	GroupID      string
	SASLUser     string
	SASLPassword string
	TLS          bool
}

type ReminderConfig struct {
	Enabled  bool
	Interval time.Duration
	// Window is how far ahead of an appointment the reminder goes out.
	Window time.Duration
}

type SecretsConfig struct {
	// Source is empty or "aws".
	Source   string
	SecretID string
	Region   string
}

type TLSConfig struct {
	Enabled      bool
	CertFile     string
	KeyFile      string
	ClientCAFile string
}

// Load reads configuration from the environment, after loading an optional
// .env file. It does not validate; call Validate once every source (such as
// a secrets manager) has been applied.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name:        v.GetString("APP_NAME"),
			Environment: v.GetString("APP_ENV"),
			Version:     v.GetString("APP_VERSION"),
			BaseURL:     strings.TrimRight(v.GetString("APP_URL"), "/"),
		},
		Server: ServerConfig{
			Host:            v.GetString("SERVER_HOST"),
			Port:            v.GetInt("SERVER_PORT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetDuration("SERVER_IDLE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:               v.GetString("DB_HOST"),
			Port:               v.GetInt("DB_PORT"),
			Name:               v.GetString("DB_NAME"),
			User:               v.GetString("DB_USER"),
			Password:           v.GetString("DB_PASSWORD"),
			SSLMode:            v.GetString("DB_SSLMODE"),
			MaxOpenConns:       v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:       v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime:    v.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime:    v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
			SlowQueryThreshold: v.GetDuration("DB_SLOW_QUERY_THRESHOLD"),
		},
		JWT: JWTConfig{
			Secret:          v.GetString("JWT_SECRET"),
			AccessTokenTTL:  v.GetDuration("JWT_ACCESS_TTL"),
			RefreshTokenTTL: v.GetDuration("JWT_REFRESH_TTL"),
			Issuer:          v.GetString("JWT_ISSUER"),
		},
		Log: LogConfig{
			Level:      v.GetString("LOG_LEVEL"),
			Format:     v.GetString("LOG_FORMAT"),
			OutputPath: v.GetString("LOG_OUTPUT"),
		},
		Tracing: TracingConfig{
			Enabled:      v.GetBool("TRACING_ENABLED"),
			ServiceName:  v.GetString("TRACING_SERVICE_NAME"),
			OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Insecure:     v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
			SampleRate:   v.GetFloat64("TRACING_SAMPLE_RATE"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getSlice(v, "CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   getSlice(v, "CORS_ALLOWED_METHODS"),
			AllowedHeaders:   getSlice(v, "CORS_ALLOWED_HEADERS"),
			AllowCredentials: v.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           v.GetDuration("CORS_MAX_AGE"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond:     v.GetFloat64("RATE_LIMIT_RPS"),
			BurstSize:             v.GetInt("RATE_LIMIT_BURST"),
			AuthRequestsPerMinute: v.GetInt("RATE_LIMIT_AUTH_RPM"),
		},
		Email: EmailConfig{
			Provider:           strings.ToLower(v.GetString("EMAIL_PROVIDER")),
			ClinicName:         v.GetString("EMAIL_CLINIC_NAME"),
			From:               v.GetString("SMTP_FROM"),
			SMTPHost:           v.GetString("SMTP_HOST"),
			SMTPPort:           v.GetInt("SMTP_PORT"),
			SMTPUser:           v.GetString("SMTP_USER"),
			SMTPPassword:       v.GetString("SMTP_PASSWORD"),
			SendGridAPIKey:     v.GetString("SENDGRID_API_KEY"),
			ResendAPIKey:       v.GetString("RESEND_API_KEY"),
			SendTimeout:        v.GetDuration("EMAIL_SEND_TIMEOUT"),
			BreakerMaxFailures: v.GetUint32("EMAIL_BREAKER_MAX_FAILURES"),
			BreakerOpenTimeout: v.GetDuration("EMAIL_BREAKER_OPEN_TIMEOUT"),
		},
		Notify: NotifyConfig{
			Transport: strings.ToLower(v.GetString("NOTIFY_TRANSPORT")),
			Workers:   v.GetInt("NOTIFY_WORKERS"),
			QueueSize: v.GetInt("NOTIFY_QUEUE_SIZE"),
		},
		Kafka: KafkaConfig{
			Brokers:      getSlice(v, "KAFKA_BROKERS"),
			Topic:        v.GetString("KAFKA_NOTIFY_TOPIC"),
			GroupID:      v.GetString("KAFKA_NOTIFY_GROUP"),
			SASLUser:     v.GetString("KAFKA_SASL_USER"),
			SASLPassword: v.GetString("KAFKA_SASL_PASSWORD"),
			TLS:          v.GetBool("KAFKA_TLS"),
		},
		Reminder: ReminderConfig{
			Enabled:  v.GetBool("REMINDER_ENABLED"),
			Interval: v.GetDuration("REMINDER_INTERVAL"),
			Window:   v.GetDuration("REMINDER_WINDOW"),
		},
		Secrets: SecretsConfig{
			Source:   strings.ToLower(v.GetString("SECRETS_SOURCE")),
			SecretID: v.GetString("SECRETS_ID"),
			Region:   v.GetString("AWS_REGION"),
		},
		TLS: TLSConfig{
			Enabled:      v.GetBool("TLS_ENABLED"),
			CertFile:     v.GetString("TLS_CERT_FILE"),
			KeyFile:      v.GetString("TLS_KEY_FILE"),
			ClientCAFile: v.GetString("TLS_CLIENT_CA_FILE"),
		},
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "clinicportal")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_VERSION", "0.0.0")
	v.SetDefault("APP_URL", "http://localhost:3000")

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_NAME", "clinicportal")
	v.SetDefault("DB_USER", "clinicportal")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_SSLMODE", "require")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", 5*time.Minute)
	v.SetDefault("DB_SLOW_QUERY_THRESHOLD", 200*time.Millisecond)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ACCESS_TTL", 15*time.Minute)
	v.SetDefault("JWT_REFRESH_TTL", 7*24*time.Hour)
	v.SetDefault("JWT_ISSUER", "clinicportal-api")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_OUTPUT", "stdout")

	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_SERVICE_NAME", "clinicportal-api")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", true)
	v.SetDefault("TRACING_SAMPLE_RATE", 0.1)

	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS")
	v.SetDefault("CORS_ALLOWED_HEADERS", "Authorization,Content-Type,X-Request-ID")
	v.SetDefault("CORS_ALLOW_CREDENTIALS", true)
	v.SetDefault("CORS_MAX_AGE", 12*time.Hour)

	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("RATE_LIMIT_AUTH_RPM", 10)

	v.SetDefault("EMAIL_PROVIDER", ProviderSMTP)
	v.SetDefault("EMAIL_CLINIC_NAME", "Heart Doctor Clinic")
	v.SetDefault("SMTP_FROM", "no-reply@clinicportal.local")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("EMAIL_SEND_TIMEOUT", 10*time.Second)
	v.SetDefault("EMAIL_BREAKER_MAX_FAILURES", 5)
	v.SetDefault("EMAIL_BREAKER_OPEN_TIMEOUT", 30*time.Second)

	v.SetDefault("NOTIFY_TRANSPORT", "inline")
	v.SetDefault("NOTIFY_WORKERS", 4)
	v.SetDefault("NOTIFY_QUEUE_SIZE", 1000)

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_NOTIFY_TOPIC", "clinic.appointment-notices")
	v.SetDefault("KAFKA_NOTIFY_GROUP", "clinicportal-notify")

	v.SetDefault("REMINDER_ENABLED", false)
	v.SetDefault("REMINDER_INTERVAL", 15*time.Minute)
	v.SetDefault("REMINDER_WINDOW", 24*time.Hour)

	v.SetDefault("AWS_REGION", "us-east-1")
}

// Validate enforces production security requirements and checks that the
// selected backends are configured.
func (cfg *Config) Validate() error {
	var errs []string
	prod := cfg.App.IsProduction()

	if cfg.JWT.Secret == "" {
		errs = append(errs, "JWT_SECRET is required")
	} else if len(cfg.JWT.Secret) < 32 && prod {
		errs = append(errs, "JWT_SECRET must be at least 32 characters in production")
	}

	if cfg.Database.Password == "" && cfg.App.Environment != "development" {
		errs = append(errs, "DB_PASSWORD is required in non-development environments")
	}

	if cfg.Database.SSLMode == "disable" && prod {
		errs = append(errs, "DB_SSLMODE=disable is not allowed in production")
	}

	switch cfg.Email.Provider {
	case ProviderSMTP:
		if cfg.Email.SMTPHost == "" {
			errs = append(errs, "SMTP_HOST is required when EMAIL_PROVIDER=smtp")
		}
	case ProviderSendGrid:
		if cfg.Email.SendGridAPIKey == "" {
			errs = append(errs, "SENDGRID_API_KEY is required when EMAIL_PROVIDER=sendgrid")
		}
	case ProviderResend:
		if cfg.Email.ResendAPIKey == "" {
			errs = append(errs, "RESEND_API_KEY is required when EMAIL_PROVIDER=resend")
		}
	case ProviderLog:
		if prod {
			errs = append(errs, "EMAIL_PROVIDER=log is not allowed in production")
		}
	default:
		errs = append(errs, fmt.Sprintf("unsupported EMAIL_PROVIDER %q", cfg.Email.Provider))
	}

	if !slices.Contains([]string{"inline", "kafka"}, cfg.Notify.Transport) {
		errs = append(errs, fmt.Sprintf("unsupported NOTIFY_TRANSPORT %q", cfg.Notify.Transport))
	}
	if cfg.Notify.Transport == "kafka" && (len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.Topic == "") {
		errs = append(errs, "KAFKA_BROKERS and KAFKA_NOTIFY_TOPIC are required when NOTIFY_TRANSPORT=kafka")
	}

	if cfg.Secrets.Source != "" && cfg.Secrets.Source != "aws" {
		errs = append(errs, fmt.Sprintf("unsupported SECRETS_SOURCE %q", cfg.Secrets.Source))
	}
	if cfg.Secrets.Source == "aws" && cfg.Secrets.SecretID == "" {
		errs = append(errs, "SECRETS_ID is required when SECRETS_SOURCE=aws")
	}

	if cfg.TLS.Enabled && (cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "") {
		errs = append(errs, "TLS_CERT_FILE and TLS_KEY_FILE are required when TLS_ENABLED=true")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func getSlice(v *viper.Viper, key string) []string {
	parts := strings.Split(v.GetString(key), ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			result = append(result, t)
		}
	}
	return result
}
