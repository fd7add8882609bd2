package hub

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hubsync/hubsync/internal/secrets"
)

type IntegrationType string

const (
	TypeIdentity     IntegrationType = "identity"
	TypeWorkflow     IntegrationType = "workflow"
	TypeNotification IntegrationType = "notification"
	TypeCICD         IntegrationType = "cicd"
	TypeMonitoring   IntegrationType = "monitoring"
)

func ParseIntegrationType(v string) (IntegrationType, error) {
	t := IntegrationType(strings.ToLower(strings.TrimSpace(v)))
	switch t {
	case TypeIdentity, TypeWorkflow, TypeNotification, TypeCICD, TypeMonitoring:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, v)
	}
}

// IntegrationConfig declares one external system connection. ID and Type are
// immutable once registered; changes go through ReplaceIntegration.
type IntegrationConfig struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Type        IntegrationType      `json:"type"`
	Enabled     bool                 `json:"enabled"`
	Settings    map[string]any       `json:"settings"`
	Credentials *secrets.Credentials `json:"credentials,omitempty"`
}

func (c IntegrationConfig) Normalized() IntegrationConfig {
	out := c
	out.ID = strings.TrimSpace(out.ID)
	out.Name = strings.TrimSpace(out.Name)
	out.Type = IntegrationType(strings.ToLower(strings.TrimSpace(string(out.Type))))
	if out.Credentials != nil {
		creds := out.Credentials.Normalized()
		out.Credentials = &creds
	}
	return out
}

// Endpoint returns the base URL declared in the type-opaque settings record.
func (c IntegrationConfig) Endpoint() string {
	v, _ := c.Settings["endpoint"].(string)
	return strings.TrimRight(strings.TrimSpace(v), "/")
}

func (c IntegrationConfig) Validate() error {
	c = c.Normalized()
	if c.ID == "" {
		return errors.New("integration id is required")
	}
	if c.Name == "" {
		return errors.New("integration name is required")
	}
	if _, err := ParseIntegrationType(string(c.Type)); err != nil {
		return err
	}
	endpoint := c.Endpoint()
	if endpoint == "" {
		return errors.New("settings.endpoint is required")
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("settings.endpoint %q is not a valid URL", endpoint)
	}
	if c.Credentials != nil {
		if err := c.Credentials.Validate(); err != nil {
			return fmt.Errorf("credentials: %w", err)
		}
	}
	return nil
}

// Redacted returns a copy with credential secrets masked, safe for API
// responses and event payloads.
func (c IntegrationConfig) Redacted() IntegrationConfig {
	out := c.Normalized()
	if out.Credentials != nil {
		creds := out.Credentials.Redacted()
		out.Credentials = &creds
	}
	return out
}

type HealthState string

const (
	StateUnknown   HealthState = "unknown"
	StateHealthy   HealthState = "healthy"
	StateDegraded  HealthState = "degraded"
	StateUnhealthy HealthState = "unhealthy"
)

// GaugeValue maps the state onto the integration_health_status gauge.
func (s HealthState) GaugeValue() float64 {
	switch s {
	case StateHealthy:
		return 1
	case StateDegraded:
		return 2
	case StateUnhealthy:
		return 3
	default:
		return 0
	}
}

// IntegrationStatus is the per-integration health/sync snapshot. It is owned
// by the hub; callers read copies.
type IntegrationStatus struct {
	IntegrationID string      `json:"integration_id"`
	State         HealthState `json:"status"`
	LastSync      *time.Time  `json:"last_sync,omitempty"`
	LastError     string      `json:"last_error,omitempty"`
	CheckedAt     time.Time   `json:"checked_at"`
}

// SyncResult is the immutable outcome of one synchronization attempt.
type SyncResult struct {
	IntegrationID string    `json:"integration_id"`
	RunID         string    `json:"run_id"`
	Success       bool      `json:"success"`
	ItemsSynced   int       `json:"items_synced"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Error         string    `json:"error,omitempty"`
}

// SyncReport aggregates a bulk sync pass. Per-integration failures land in
// Warnings; they never abort siblings.
type SyncReport struct {
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Results   []SyncResult `json:"results"`
	Warnings  []string     `json:"warnings,omitempty"`
}

func (r SyncReport) Summary() string {
	return fmt.Sprintf("%d/%d integrations synced", r.Succeeded, r.Total)
}

// Result is the uniform envelope returned by every typed manager operation.
// Operational failures set Success=false; they are not Go errors.
type Result struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func OK(data map[string]any) Result {
	return Result{Success: true, Data: data}
}

func Failf(format string, args ...any) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}
