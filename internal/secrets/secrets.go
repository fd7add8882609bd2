package secrets

import (
	"context"
	"errors"
	"strings"
)

const (
	AuthTypeBasic  = "basic"
	AuthTypeAPIKey = "api_key"
	AuthTypeOAuth  = "oauth"
	AuthTypeVault  = "vault"
)

// Credentials is the secret material attached to an integration. Vault-typed
// credentials are references resolved at call time; the other variants carry
// the material inline.
type Credentials struct {
	AuthType    string `json:"auth_type"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
	APIKey      string `json:"api_key,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	VaultPath   string `json:"vault_path,omitempty"`
	VaultField  string `json:"vault_field,omitempty"`
}

func (c Credentials) Normalized() Credentials {
	out := c
	out.AuthType = strings.ToLower(strings.TrimSpace(out.AuthType))
	out.Username = strings.TrimSpace(out.Username)
	out.Password = strings.TrimSpace(out.Password)
	out.APIKey = strings.TrimSpace(out.APIKey)
	out.AccessToken = strings.TrimSpace(out.AccessToken)
	out.VaultPath = strings.Trim(strings.TrimSpace(out.VaultPath), "/")
	out.VaultField = strings.TrimSpace(out.VaultField)
	if out.AuthType == AuthTypeVault && out.VaultField == "" {
		out.VaultField = "token"
	}
	return out
}

func (c Credentials) Validate() error {
	c = c.Normalized()
	switch c.AuthType {
	case AuthTypeBasic:
		if c.Username == "" {
			return errors.New("basic auth username is required")
		}
		if c.Password == "" {
			return errors.New("basic auth password is required")
		}
	case AuthTypeAPIKey:
		if c.APIKey == "" {
			return errors.New("API key is required")
		}
	case AuthTypeOAuth:
		if c.AccessToken == "" {
			return errors.New("OAuth access token is required")
		}
	case AuthTypeVault:
		if c.VaultPath == "" {
			return errors.New("Vault secret path is required")
		}
	default:
		return errors.New("credentials auth type is invalid")
	}
	return nil
}

// Redacted returns a copy safe for logs, events, and API responses.
func (c Credentials) Redacted() Credentials {
	out := c.Normalized()
	out.Password = Mask(out.Password)
	out.APIKey = Mask(out.APIKey)
	out.AccessToken = Mask(out.AccessToken)
	return out
}

// Resolver materializes credential references into usable secret material.
type Resolver interface {
	Resolve(ctx context.Context, c Credentials) (Credentials, error)
}

// StaticResolver passes inline credentials through and rejects references
// that need an external secret store.
type StaticResolver struct{}

func (StaticResolver) Resolve(_ context.Context, c Credentials) (Credentials, error) {
	c = c.Normalized()
	if c.AuthType == AuthTypeVault {
		return Credentials{}, errors.New("vault credentials require a configured Vault resolver")
	}
	return c, nil
}

// Mask hides secret material for logs and API responses. The 4-char tail is
// only revealed for secrets long enough that it identifies without exposing.
func Mask(secret string) string {
	s := strings.TrimSpace(secret)
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	tail := s[len(s)-4:]
	prefix := ""
	if idx := strings.Index(s, "_"); idx > 0 && idx <= 6 {
		prefix = s[:idx+1]
	}
	return prefix + "****" + tail
}
