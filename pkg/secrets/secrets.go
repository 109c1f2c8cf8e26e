package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/config"
)

// SecretsAPI is the slice of the Secrets Manager client this package uses.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Bundle is the JSON document stored in the secret. Empty fields leave the
// environment value in place.
type Bundle struct {
	DatabasePassword  string `json:"DB_PASSWORD"`
	JWTSecret         string `json:"JWT_SECRET"`
	SMTPPassword      string `json:"SMTP_PASSWORD"`
	SendGridAPIKey    string `json:"SENDGRID_API_KEY"`
	ResendAPIKey      string `json:"RESEND_API_KEY"`
	KafkaSASLPassword string `json:"KAFKA_SASL_PASSWORD"`
}

func NewClient(ctx context.Context, region string) (*secretsmanager.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return secretsmanager.NewFromConfig(awsCfg), nil
}

func Fetch(ctx context.Context, api SecretsAPI, secretID string) (*Bundle, error) {
	out, err := api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return nil, fmt.Errorf("reading secret %s: %w", secretID, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", secretID)
	}

	var b Bundle
	if err := json.Unmarshal([]byte(*out.SecretString), &b); err != nil {
		return nil, fmt.Errorf("decoding secret %s: %w", secretID, err)
	}
	return &b, nil
}

// Apply overlays non-empty bundle values onto cfg.
func (b *Bundle) Apply(cfg *config.Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Database.Password, b.DatabasePassword)
	set(&cfg.JWT.Secret, b.JWTSecret)
	set(&cfg.Email.SMTPPassword, b.SMTPPassword)
	set(&cfg.Email.SendGridAPIKey, b.SendGridAPIKey)
	set(&cfg.Email.ResendAPIKey, b.ResendAPIKey)
	set(&cfg.Kafka.SASLPassword, b.KafkaSASLPassword)
}

// Load fetches and applies the configured secret. It is a no-op when no
// secrets source is configured.
func Load(ctx context.Context, cfg *config.Config) error {
	if cfg.Secrets.Source == "" {
		return nil
	}
	client, err := NewClient(ctx, cfg.Secrets.Region)
	if err != nil {
		return err
	}
	b, err := Fetch(ctx, client, cfg.Secrets.SecretID)
	if err != nil {
		return err
	}
	b.Apply(cfg)
	return nil
}
