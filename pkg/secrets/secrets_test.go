package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/config"
)

type fakeSecrets struct {
	value string
	err   error
	asked string
}

func (f *fakeSecrets) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.asked = aws.ToString(in.SecretId)
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(f.value)}, nil
}

func TestFetchAndApply(t *testing.T) {
	api := &fakeSecrets{value: `{"DB_PASSWORD":"pg-pass","JWT_SECRET":"from-vault","SENDGRID_API_KEY":"SG.x"}`}

	b, err := Fetch(context.Background(), api, "clinic/prod")
	require.NoError(t, err)
	assert.Equal(t, "clinic/prod", api.asked)

	cfg := &config.Config{}
	cfg.JWT.Secret = "from-env"
	cfg.Email.ResendAPIKey = "re_keep"
	b.Apply(cfg)

	assert.Equal(t, "pg-pass", cfg.Database.Password)
	assert.Equal(t, "from-vault", cfg.JWT.Secret)
	assert.Equal(t, "SG.x", cfg.Email.SendGridAPIKey)
	assert.Equal(t, "re_keep", cfg.Email.ResendAPIKey, "empty bundle fields keep env values")
}

func TestFetchErrors(t *testing.T) {
	_, err := Fetch(context.Background(), &fakeSecrets{err: errors.New("denied")}, "x")
	assert.ErrorContains(t, err, "denied")

	_, err = Fetch(context.Background(), &fakeSecrets{value: "not json"}, "x")
	assert.ErrorContains(t, err, "decoding secret")
}

func TestLoadWithoutSource(t *testing.T) {
	assert.NoError(t, Load(context.Background(), &config.Config{}))
}
