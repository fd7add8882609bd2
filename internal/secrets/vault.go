package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	vault "github.com/hashicorp/vault/api"
)

type VaultOptions struct {
	Address   string
	Token     string
	Namespace string
}

// VaultResolver resolves vault-typed credential references by reading the
// referenced KV secret. Inline credentials pass through untouched.
type VaultResolver struct {
	client *vault.Client
}

func NewVaultResolver(opts VaultOptions) (*VaultResolver, error) {
	addr := strings.TrimSpace(opts.Address)
	if addr == "" {
		return nil, errors.New("vault address is required")
	}

	cfg := vault.DefaultConfig()
	cfg.Address = addr
	client, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault client: %w", err)
	}
	if token := strings.TrimSpace(opts.Token); token != "" {
		client.SetToken(token)
	}
	if ns := strings.TrimSpace(opts.Namespace); ns != "" {
		client.SetNamespace(ns)
	}
	return &VaultResolver{client: client}, nil
}

func (r *VaultResolver) Resolve(ctx context.Context, c Credentials) (Credentials, error) {
	c = c.Normalized()
	if c.AuthType != AuthTypeVault {
		return c, nil
	}
	if r == nil || r.client == nil {
		return Credentials{}, errors.New("vault resolver is not configured")
	}

	secret, err := r.client.Logical().ReadWithContext(ctx, c.VaultPath)
	if err != nil {
		return Credentials{}, fmt.Errorf("read vault secret %s: %w", c.VaultPath, err)
	}
	if secret == nil || secret.Data == nil {
		return Credentials{}, fmt.Errorf("vault secret %s not found", c.VaultPath)
	}

	value, ok := lookupField(secret.Data, c.VaultField)
	if !ok {
		return Credentials{}, fmt.Errorf("vault secret %s has no field %q", c.VaultPath, c.VaultField)
	}

	return Credentials{
		AuthType: AuthTypeAPIKey,
		APIKey:   value,
	}.Normalized(), nil
}

// lookupField reads a string field from the secret payload, descending into
// the nested "data" map produced by KV v2 mounts.
func lookupField(data map[string]any, field string) (string, bool) {
	if v, ok := data[field].(string); ok && strings.TrimSpace(v) != "" {
		return v, true
	}
	if nested, ok := data["data"].(map[string]any); ok {
		if v, ok := nested[field].(string); ok && strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	return "", false
}
