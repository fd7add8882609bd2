package managers

import (
	"context"
	"net/http"
	"time"

	"github.com/hubsync/hubsync/internal/hub"
)

// MonitoringManager serves metrics/observability backends.
type MonitoringManager struct {
	base
}

func NewMonitoringManager(deps Deps) *MonitoringManager {
	return &MonitoringManager{base{typ: hub.TypeMonitoring, deps: deps}}
}

type MetricSample struct {
	Name      string            `json:"name"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
	Timestamp time.Time         `json:"timestamp,omitzero"`
}

type MetricQuery struct {
	Query string    `json:"query"`
	Start time.Time `json:"start,omitzero"`
	End   time.Time `json:"end,omitzero"`
}

type AlertRule struct {
	Name       string         `json:"name"`
	Expression string         `json:"expression"`
	Severity   string         `json:"severity,omitempty"`
	Labels     map[string]any `json:"labels,omitempty"`
}

func (m *MonitoringManager) SendMetrics(ctx context.Context, integrationID string, samples []MetricSample) hub.Result {
	var data map[string]any
	err := m.call(ctx, integrationID, http.MethodPost, "/metrics", map[string]any{"samples": samples}, &data)
	return envelope(data, err)
}

func (m *MonitoringManager) QueryMetrics(ctx context.Context, integrationID string, query MetricQuery) hub.Result {
	var data map[string]any
	err := m.call(ctx, integrationID, http.MethodPost, "/query", query, &data)
	return envelope(data, err)
}

func (m *MonitoringManager) CreateAlertRule(ctx context.Context, integrationID string, rule AlertRule) hub.Result {
	var data map[string]any
	err := m.call(ctx, integrationID, http.MethodPost, "/alerts", rule, &data)
	return envelope(data, err)
}
