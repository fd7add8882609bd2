package managers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hubsync/hubsync/internal/hub"
	"github.com/hubsync/hubsync/internal/secrets"
)

const maxErrorBodyBytes = 512

// base carries the shared plumbing of every typed manager: config lookup,
// credential resolution, and JSON round-trips against the integration's
// endpoint. The sync and health-probe paths are part of the uniform
// contract, so they live here too.
type base struct {
	typ  hub.IntegrationType
	deps Deps
}

func (b *base) Type() hub.IntegrationType { return b.typ }

func (b *base) ValidateConfig(cfg hub.IntegrationConfig) error {
	endpoint := cfg.Endpoint()
	if endpoint == "" {
		return fmt.Errorf("%s integration requires settings.endpoint", b.typ)
	}
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("settings.endpoint must be an http(s) URL")
	}
	return nil
}

type syncResponse struct {
	Items int `json:"items"`
}

func (b *base) Sync(ctx context.Context, cfg hub.IntegrationConfig) (int, error) {
	var resp syncResponse
	if err := b.request(ctx, cfg, http.MethodPost, "/sync", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Items, nil
}

func (b *base) Check(ctx context.Context, cfg hub.IntegrationConfig) error {
	return b.request(ctx, cfg, http.MethodGet, "/health", nil, nil)
}

// call looks up the target integration by id and performs one request
// against it. Lookup failures come back as errors folded into the Result
// envelope by the callers.
func (b *base) call(ctx context.Context, integrationID, method, path string, body, out any) error {
	cfg, ok := b.deps.Source.Lookup(integrationID)
	if !ok {
		return fmt.Errorf("integration %s is not registered", integrationID)
	}
	if cfg.Type != b.typ {
		return fmt.Errorf("integration %s is %s, not %s", integrationID, cfg.Type, b.typ)
	}
	return b.request(ctx, cfg, method, path, body, out)
}

func (b *base) request(ctx context.Context, cfg hub.IntegrationConfig, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.Endpoint()+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := b.authorize(ctx, req, cfg); err != nil {
		return err
	}

	resp, err := b.deps.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		msg := strings.TrimSpace(string(snippet))
		if msg == "" {
			msg = resp.Status
		}
		return fmt.Errorf("%s %s: %s", method, path, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (b *base) authorize(ctx context.Context, req *http.Request, cfg hub.IntegrationConfig) error {
	if cfg.Credentials == nil {
		return nil
	}
	creds, err := b.deps.Resolver.Resolve(ctx, *cfg.Credentials)
	if err != nil {
		return fmt.Errorf("resolve credentials: %w", err)
	}
	switch creds.AuthType {
	case secrets.AuthTypeBasic:
		req.SetBasicAuth(creds.Username, creds.Password)
	case secrets.AuthTypeAPIKey:
		req.Header.Set("X-API-Key", creds.APIKey)
	case secrets.AuthTypeOAuth:
		req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	}
	return nil
}

// envelope converts a call outcome into the uniform operation result.
func envelope(data map[string]any, err error) hub.Result {
	if err != nil {
		return hub.Failf("%v", err)
	}
	return hub.OK(data)
}
