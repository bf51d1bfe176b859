package secrets_test

import (
	"context"
	"errors"
	"testing"

	"github.com/edutour/sales-crm/internal/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mapFetcher map[string]string

func (m mapFetcher) GetSecret(ctx context.Context, name string) (string, error) {
	v, ok := m[name]
	if !ok {
		return "", errors.New("secret not found")
	}
	return v, nil
}

func TestResolveSource(t *testing.T) {
	tests := []struct {
		source      secrets.SecretSource
		environment string
		want        secrets.SecretSource
	}{
		{secrets.SourceAuto, "development", secrets.SourceEnvironment},
		{secrets.SourceAuto, "", secrets.SourceEnvironment},
		{secrets.SourceAuto, "test", secrets.SourceEnvironment},
		{secrets.SourceAuto, "staging", secrets.SourceVault},
		{secrets.SourceAuto, "production", secrets.SourceVault},
		{secrets.SourceEnvironment, "production", secrets.SourceEnvironment},
		{secrets.SourceVault, "development", secrets.SourceVault},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, secrets.ResolveSource(tt.source, tt.environment), "%s/%s", tt.source, tt.environment)
	}
}

func TestProvider_Environment(t *testing.T) {
	p, err := secrets.NewProvider(&secrets.ProviderConfig{Source: secrets.SourceAuto, Environment: "development"}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsVaultEnabled())

	t.Setenv("SMTP_PASSWORD", "from-env")
	v, err := p.GetSecret(context.Background(), "SMTP_PASSWORD")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	_, err = p.GetSecret(context.Background(), "UNSET_SECRET_FOR_TEST")
	assert.Error(t, err)
}

func TestProvider_VaultRequiresName(t *testing.T) {
	_, err := secrets.NewProvider(&secrets.ProviderConfig{Source: secrets.SourceVault}, zap.NewNop())
	assert.Error(t, err)
}

func TestProvider_GetSecretOrEnv(t *testing.T) {
	p := secrets.NewProviderWithFetcher(secrets.SourceVault, mapFetcher{"jwt-signing-key": "vault-key"}, zap.NewNop())
	require.True(t, p.IsVaultEnabled())
	assert.Equal(t, secrets.SourceVault, p.Source())
	ctx := context.Background()

	v, err := p.GetSecretOrEnv(ctx, "jwt-signing-key", "JWT_SIGNING_KEY_TEST")
	require.NoError(t, err)
	assert.Equal(t, "vault-key", v)

	t.Setenv("JWT_SIGNING_KEY_TEST", "env-key")
	v, err = p.GetSecretOrEnv(ctx, "jwt-signing-key", "JWT_SIGNING_KEY_TEST")
	require.NoError(t, err)
	assert.Equal(t, "env-key", v, "environment overrides the vault")

	_, err = p.GetSecretOrEnv(ctx, "missing", "MISSING_ENV_FOR_TEST")
	assert.Error(t, err)
}

func TestProvider_VaultWithoutFetcher(t *testing.T) {
	p := secrets.NewProviderWithFetcher(secrets.SourceVault, nil, zap.NewNop())
	_, err := p.GetSecret(context.Background(), "anything")
	assert.Error(t, err)
}
