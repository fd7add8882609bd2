package hub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hubsync/hubsync/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// SyncIntegration drives one registered, enabled integration through a
// synchronization pass.
//
// Operational failures (unreachable endpoint, bad credentials, timeout)
// resolve as SyncResult{Success: false} with a sync-failed event; they are
// never returned as errors. The error return is reserved for structural
// misuse: an unknown id (ErrNotFound) or a disabled one (ErrDisabled), in
// which case no sync-started event is emitted.
//
// Concurrent syncs of the same id are tolerated: each call owns its result,
// and the shared status snapshot is last-to-resolve wins.
func (h *Hub) SyncIntegration(ctx context.Context, id string) (SyncResult, error) {
	cfg, ok := h.Lookup(id)
	if !ok {
		return SyncResult{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !cfg.Enabled {
		return SyncResult{}, fmt.Errorf("%w: %s", ErrDisabled, id)
	}

	mgr, err := h.ManagerFor(cfg.Type)
	if err != nil {
		// Type resolvability is enforced at registration; reaching this
		// means a manager was never wired for a loaded config.
		return SyncResult{}, err
	}

	runID := uuid.NewString()
	started := h.now()
	h.bus.Publish(Event{
		Type:          EventSyncStarted,
		IntegrationID: id,
		Timestamp:     started,
		Payload:       map[string]any{"run_id": runID, "type": string(cfg.Type)},
	})

	syncCtx, cancel := context.WithTimeout(ctx, h.syncTimeout)
	items, syncErr := mgr.Sync(syncCtx, cfg)
	cancel()

	finished := h.now()
	result := SyncResult{
		IntegrationID: id,
		RunID:         runID,
		Success:       syncErr == nil,
		ItemsSynced:   items,
		StartedAt:     started,
		FinishedAt:    finished,
	}

	duration := finished.Sub(started).Seconds()
	metrics.SyncDuration.WithLabelValues(string(cfg.Type), id).Observe(duration)

	if syncErr != nil {
		result.Error = syncErr.Error()
		metrics.SyncRunsTotal.WithLabelValues(string(cfg.Type), id, "failure").Inc()

		lastSync := h.lastSyncOf(id)
		h.setStatus(ctx, IntegrationStatus{
			IntegrationID: id,
			State:         StateDegraded,
			LastSync:      lastSync,
			LastError:     result.Error,
			CheckedAt:     finished,
		})
		h.bus.Publish(Event{
			Type:          EventSyncFailed,
			IntegrationID: id,
			Timestamp:     finished,
			Payload:       map[string]any{"run_id": runID, "error": result.Error},
		})
		return result, nil
	}

	metrics.SyncRunsTotal.WithLabelValues(string(cfg.Type), id, "success").Inc()
	metrics.SyncItemsTotal.WithLabelValues(string(cfg.Type), id).Add(float64(items))
	metrics.SyncLastSuccessTimestamp.WithLabelValues(string(cfg.Type), id).Set(float64(finished.Unix()))

	h.setStatus(ctx, IntegrationStatus{
		IntegrationID: id,
		State:         StateHealthy,
		LastSync:      &finished,
		CheckedAt:     finished,
	})
	h.bus.Publish(Event{
		Type:          EventSyncCompleted,
		IntegrationID: id,
		Timestamp:     finished,
		Payload:       map[string]any{"run_id": runID, "items_synced": items},
	})
	return result, nil
}

// SyncAll fans out over every enabled integration with a bounded worker
// count. One integration's failure never aborts its siblings; the report
// carries per-integration outcomes plus warnings for the failures.
func (h *Hub) SyncAll(ctx context.Context) (SyncReport, error) {
	h.mu.RLock()
	ids := make([]string, 0, len(h.configs))
	for id, cfg := range h.configs {
		if cfg.Enabled {
			ids = append(ids, id)
		}
	}
	h.mu.RUnlock()

	report := SyncReport{Total: len(ids)}
	if len(ids) == 0 {
		return report, nil
	}
	started := h.now()

	var (
		mu      sync.Mutex
		results = make([]SyncResult, 0, len(ids))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.syncWorkers)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			res, err := h.SyncIntegration(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Raced with removal or disablement mid-pass; report it as
				// a warning rather than failing the batch.
				report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %v", id, err))
				report.Failed++
				return nil
			}
			results = append(results, res)
			if res.Success {
				report.Succeeded++
			} else {
				report.Failed++
				report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %s", id, res.Error))
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Results = results
	slog.Info("bulk sync finished",
		"total", report.Total,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"duration", time.Since(started).String(),
	)
	return report, nil
}

func (h *Hub) lastSyncOf(id string) *time.Time {
	if st, ok := h.statusSnapshot(id); ok {
		return st.LastSync
	}
	return nil
}
