package hub

import (
	"context"
	"fmt"

	"github.com/hubsync/hubsync/internal/metrics"
)

// HealthCheck reports the current status of one integration (id given) or
// all registered integrations (id empty). Enabled integrations are probed
// through their manager; disabled ones report their stored snapshot without
// a probe. Each integration examined emits one health-check event.
//
// Health is isolated per id: a failing integration never affects a
// sibling's reported status.
func (h *Hub) HealthCheck(ctx context.Context, id string) ([]IntegrationStatus, error) {
	if id != "" {
		cfg, ok := h.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return []IntegrationStatus{h.checkOne(ctx, cfg)}, nil
	}

	configs, _ := h.ListIntegrations(ctx)
	out := make([]IntegrationStatus, 0, len(configs))
	for _, cfg := range configs {
		out = append(out, h.checkOne(ctx, cfg))
	}
	return out, nil
}

func (h *Hub) checkOne(ctx context.Context, cfg IntegrationConfig) IntegrationStatus {
	st, ok := h.statusSnapshot(cfg.ID)
	if !ok {
		st = IntegrationStatus{IntegrationID: cfg.ID, State: StateUnknown}
	}

	if cfg.Enabled {
		mgr, err := h.ManagerFor(cfg.Type)
		if err == nil {
			probeCtx, cancel := context.WithTimeout(ctx, h.syncTimeout)
			probeErr := mgr.Check(probeCtx, cfg)
			cancel()

			st.CheckedAt = h.now()
			if probeErr != nil {
				st.State = StateUnhealthy
				st.LastError = probeErr.Error()
				metrics.HealthChecksTotal.WithLabelValues(string(cfg.Type), cfg.ID, "failure").Inc()
			} else {
				st.State = StateHealthy
				st.LastError = ""
				metrics.HealthChecksTotal.WithLabelValues(string(cfg.Type), cfg.ID, "success").Inc()
			}
			h.setStatus(ctx, st)
		}
	}

	h.bus.Publish(Event{
		Type:          EventHealthCheck,
		IntegrationID: cfg.ID,
		Timestamp:     h.now(),
		Payload:       map[string]any{"status": string(st.State)},
	})
	return st
}
