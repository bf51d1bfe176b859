// Package secrets resolves credentials from the environment or Azure Key Vault
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// SecretSource names where secrets are read from
type SecretSource string

const (
	SourceEnvironment SecretSource = "environment"
	SourceVault       SecretSource = "vault"
	// SourceAuto picks the vault outside local environments
	SourceAuto SecretSource = "auto"
)

var errNoFetcher = errors.New("vault client not initialized")

// Fetcher retrieves a named secret from a remote store
type Fetcher interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// ProviderConfig configures NewProvider
type ProviderConfig struct {
	Source       SecretSource
	VaultName    string
	Environment  string
	CacheEnabled bool
	CacheTTL     time.Duration
}

// Provider reads secrets from its source. In environment mode the secret
// name is the variable name.
type Provider struct {
	source  SecretSource
	fetcher Fetcher
	logger  *zap.Logger
}

// ResolveSource turns SourceAuto into a concrete source for environment
func ResolveSource(source SecretSource, environment string) SecretSource {
	if source != SourceAuto {
		return source
	}
	switch environment {
	case "", "development", "local", "test":
		return SourceEnvironment
	}
	return SourceVault
}

// NewProvider creates a provider, connecting to Key Vault when the resolved
// source is the vault
func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (*Provider, error) {
	source := ResolveSource(cfg.Source, cfg.Environment)

	var fetcher Fetcher
	if source == SourceVault {
		if cfg.VaultName == "" {
			return nil, fmt.Errorf("vault name required when using vault secret source")
		}
		client, err := NewVaultClient(&VaultConfig{
			VaultName:    cfg.VaultName,
			CacheEnabled: cfg.CacheEnabled,
			CacheTTL:     cfg.CacheTTL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vault client: %w", err)
		}
		fetcher = client
	}

	logger.Info("secrets provider ready",
		zap.String("source", string(source)),
		zap.String("environment", cfg.Environment),
	)
	return NewProviderWithFetcher(source, fetcher, logger), nil
}

// NewProviderWithFetcher builds a provider around an existing fetcher
func NewProviderWithFetcher(source SecretSource, fetcher Fetcher, logger *zap.Logger) *Provider {
	return &Provider{source: source, fetcher: fetcher, logger: logger}
}

// GetSecret retrieves secretName from the configured source
func (p *Provider) GetSecret(ctx context.Context, secretName string) (string, error) {
	if p.source == SourceEnvironment {
		if value := os.Getenv(secretName); value != "" {
			return value, nil
		}
		return "", fmt.Errorf("environment variable '%s' not set", secretName)
	}
	if p.source != SourceVault {
		return "", fmt.Errorf("unknown secret source: %s", p.source)
	}
	if p.fetcher == nil {
		return "", errNoFetcher
	}
	return p.fetcher.GetSecret(ctx, secretName)
}

// GetSecretOrEnv lets a set envName override the stored secret
func (p *Provider) GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error) {
	if value := os.Getenv(envName); value != "" {
		p.logger.Debug("secret overridden by environment", zap.String("env_name", envName))
		return value, nil
	}
	return p.GetSecret(ctx, secretName)
}

// Source returns the resolved secret source
func (p *Provider) Source() SecretSource {
	return p.source
}

// IsVaultEnabled reports whether secrets come from Key Vault
func (p *Provider) IsVaultEnabled() bool {
	return p.source == SourceVault
}
