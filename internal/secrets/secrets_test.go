package secrets

import (
	"context"
	"testing"
)

func TestCredentials_Validate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		creds   Credentials
		wantErr bool
	}{
		{"basic ok", Credentials{AuthType: "basic", Username: "svc", Password: "hunter2"}, false},
		{"basic missing password", Credentials{AuthType: "basic", Username: "svc"}, true},
		{"api key ok", Credentials{AuthType: "api_key", APIKey: "hs_abc123"}, false},
		{"api key empty", Credentials{AuthType: "api_key"}, true},
		{"oauth ok", Credentials{AuthType: "oauth", AccessToken: "tok"}, false},
		{"vault ok", Credentials{AuthType: "vault", VaultPath: "secret/data/jira"}, false},
		{"vault missing path", Credentials{AuthType: "vault"}, true},
		{"unknown type", Credentials{AuthType: "kerberos"}, true},
		{"whitespace auth type normalized", Credentials{AuthType: " Basic ", Username: "a", Password: "b"}, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.creds.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestCredentials_NormalizedDefaultsVaultField(t *testing.T) {
	t.Parallel()

	c := Credentials{AuthType: "vault", VaultPath: "/secret/data/slack/"}.Normalized()
	if c.VaultPath != "secret/data/slack" {
		t.Fatalf("VaultPath = %q, want %q", c.VaultPath, "secret/data/slack")
	}
	if c.VaultField != "token" {
		t.Fatalf("VaultField = %q, want %q", c.VaultField, "token")
	}
}

func TestCredentials_RedactedMasksSecrets(t *testing.T) {
	t.Parallel()

	c := Credentials{AuthType: "api_key", APIKey: "hs_supersecret9999"}
	red := c.Redacted()
	if red.APIKey == c.APIKey {
		t.Fatal("Redacted() left API key intact")
	}
	if red.APIKey != "hs_****9999" {
		t.Fatalf("Redacted APIKey = %q, want %q", red.APIKey, "hs_****9999")
	}
}

func TestMask(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abc", "****"},
		{"abcde", "****"},
		{"12345678", "****"},
		{"longsecretvalue", "****alue"},
		{"dd_apikey1234", "dd_****1234"},
	}
	for _, tc := range cases {
		if got := Mask(tc.in); got != tc.want {
			t.Fatalf("Mask(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStaticResolver_RejectsVaultRefs(t *testing.T) {
	t.Parallel()

	r := StaticResolver{}
	if _, err := r.Resolve(context.Background(), Credentials{AuthType: "vault", VaultPath: "secret/x"}); err == nil {
		t.Fatal("expected error for vault reference")
	}

	got, err := r.Resolve(context.Background(), Credentials{AuthType: "oauth", AccessToken: "tok"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.AccessToken != "tok" {
		t.Fatalf("AccessToken = %q, want %q", got.AccessToken, "tok")
	}
}

func TestLookupField_KVv2Nesting(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"data": map[string]any{"token": "nested-value"},
	}
	got, ok := lookupField(data, "token")
	if !ok || got != "nested-value" {
		t.Fatalf("lookupField() = %q, %v; want nested-value, true", got, ok)
	}

	if _, ok := lookupField(map[string]any{"other": "x"}, "token"); ok {
		t.Fatal("lookupField() found missing field")
	}
}
