// Package secrets resolves credentials from environment variables or
// Azure Key Vault and applies them onto configuration fields.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// SecretSource defines where secrets are loaded from
type SecretSource string

const (
	SourceEnvironment SecretSource = "environment"
	SourceVault       SecretSource = "vault"
	// SourceAuto picks the vault outside development
	SourceAuto SecretSource = "auto"
)

// ErrSecretNotFound is returned when a source has no value for a name
var ErrSecretNotFound = errors.New("secret not found")

// Source looks up a single secret by name
type Source interface {
	Lookup(ctx context.Context, name string) (string, error)
}

type envSource struct{}

func (envSource) Lookup(_ context.Context, name string) (string, error) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v, nil
	}
	return "", ErrSecretNotFound
}

// ProviderConfig holds configuration for the secrets provider
type ProviderConfig struct {
	Source       SecretSource
	VaultName    string
	Environment  string
	CacheEnabled bool
	CacheTTL     time.Duration
}

// Binding maps a vault secret and its environment override onto a field
type Binding struct {
	Secret string
	Env    string
	Target *string
}

// Provider resolves bindings against one source. Environment variables
// always win over the source so deployments can override single values.
type Provider struct {
	kind   SecretSource
	source Source
	logger *zap.Logger
}

func resolveKind(kind SecretSource, environment string) SecretSource {
	if kind != SourceAuto && kind != "" {
		return kind
	}
	switch environment {
	case "development", "local", "test", "":
		return SourceEnvironment
	default:
		return SourceVault
	}
}

// NewProvider creates a provider for the configured source
func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (*Provider, error) {
	kind := resolveKind(cfg.Source, cfg.Environment)

	var source Source
	switch kind {
	case SourceEnvironment:
		source = envSource{}
	case SourceVault:
		vault, err := NewVaultClient(&VaultConfig{
			VaultName:    cfg.VaultName,
			CacheEnabled: cfg.CacheEnabled,
			CacheTTL:     cfg.CacheTTL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vault client: %w", err)
		}
		source = vault
	default:
		return nil, fmt.Errorf("unknown secret source: %s", kind)
	}

	logger.Info("secrets provider initialized",
		zap.String("source", string(kind)),
		zap.String("environment", cfg.Environment),
	)
	return &Provider{kind: kind, source: source, logger: logger}, nil
}

// NewProviderWithSource wraps an existing source
func NewProviderWithSource(kind SecretSource, source Source, logger *zap.Logger) *Provider {
	return &Provider{kind: kind, source: source, logger: logger}
}

// Get returns the environment override for env, or the source value for name
func (p *Provider) Get(ctx context.Context, name, env string) (string, error) {
	if env != "" {
		if v := os.Getenv(env); v != "" {
			return v, nil
		}
	}
	return p.source.Lookup(ctx, name)
}

// Apply resolves every binding. Missing secrets leave the target untouched;
// any other lookup failure aborts.
func (p *Provider) Apply(ctx context.Context, bindings ...Binding) (int, error) {
	applied := 0
	for _, b := range bindings {
		value, err := p.Get(ctx, b.Secret, b.Env)
		if errors.Is(err, ErrSecretNotFound) {
			p.logger.Debug("secret not set, keeping configured value",
				zap.String("secret_name", b.Secret),
				zap.String("env_name", b.Env),
			)
			continue
		}
		if err != nil {
			return applied, fmt.Errorf("failed to resolve %s: %w", b.Secret, err)
		}
		*b.Target = value
		applied++
	}
	return applied, nil
}

// Source returns the resolved secret source
func (p *Provider) Source() SecretSource {
	return p.kind
}
