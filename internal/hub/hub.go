package hub

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hubsync/hubsync/internal/metrics"
)

const (
	defaultSyncTimeout = 90 * time.Second
	defaultSyncWorkers = 4
)

// Store persists integration configs and statuses. The hub works fully
// in-memory when no store is configured.
type Store interface {
	SaveConfig(ctx context.Context, cfg IntegrationConfig) error
	DeleteConfig(ctx context.Context, id string) error
	ListConfigs(ctx context.Context) ([]IntegrationConfig, error)
	SaveStatus(ctx context.Context, st IntegrationStatus) error
	DeleteStatus(ctx context.Context, id string) error
	GetStatus(ctx context.Context, id string) (*IntegrationStatus, error)
}

type Options struct {
	Store       Store
	SyncTimeout time.Duration
	SyncWorkers int
}

// Hub is the single source of truth for registered integrations, their
// statuses, and the per-type manager table. Config and status entries are
// independently owned per id: no operation holds the registry lock across a
// manager call, so removing integration A never blocks an in-flight sync of
// integration B.
type Hub struct {
	bus   *Bus
	store Store

	syncTimeout time.Duration
	syncWorkers int
	now         func() time.Time

	mu       sync.RWMutex
	configs  map[string]IntegrationConfig
	statuses map[string]IntegrationStatus
	managers map[IntegrationType]Manager
}

func New(opts Options) *Hub {
	timeout := opts.SyncTimeout
	if timeout <= 0 {
		timeout = defaultSyncTimeout
	}
	workers := opts.SyncWorkers
	if workers < 1 {
		workers = defaultSyncWorkers
	}
	return &Hub{
		bus:         NewBus(),
		store:       opts.Store,
		syncTimeout: timeout,
		syncWorkers: workers,
		now:         time.Now,
		configs:     make(map[string]IntegrationConfig),
		statuses:    make(map[string]IntegrationStatus),
		managers:    make(map[IntegrationType]Manager),
	}
}

func (h *Hub) Bus() *Bus {
	return h.bus
}

// Subscribe attaches a handler for one event type on the hub bus.
func (h *Hub) Subscribe(t EventType, fn Handler) (unsubscribe func()) {
	return h.bus.Subscribe(t, fn)
}

// RegisterManager installs the shared manager for its declared type. The
// manager table is built at startup, before any integration registers.
func (h *Hub) RegisterManager(m Manager) error {
	if m == nil {
		return fmt.Errorf("manager is nil")
	}
	t, err := ParseIntegrationType(string(m.Type()))
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.managers[t]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateManager, t)
	}
	h.managers[t] = m
	return nil
}

// ManagerFor resolves the shared manager instance for a type. Unsupported
// types fail with ErrUnsupportedType, never a panic.
func (h *Hub) ManagerFor(t IntegrationType) (Manager, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	m, ok := h.managers[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, t)
	}
	return m, nil
}

// RegisterIntegration validates and stores a new integration config. On any
// validation failure nothing is stored: a later GetIntegration for the id
// reports absent.
func (h *Hub) RegisterIntegration(ctx context.Context, cfg IntegrationConfig) error {
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		return err
	}

	mgr, err := h.ManagerFor(cfg.Type)
	if err != nil {
		return err
	}
	if err := mgr.ValidateConfig(cfg); err != nil {
		return fmt.Errorf("invalid %s configuration: %w", cfg.Type, err)
	}

	h.mu.Lock()
	if _, exists := h.configs[cfg.ID]; exists {
		h.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateID, cfg.ID)
	}
	h.configs[cfg.ID] = cfg
	h.statuses[cfg.ID] = IntegrationStatus{
		IntegrationID: cfg.ID,
		State:         StateUnknown,
	}
	h.mu.Unlock()

	if h.store != nil {
		if err := h.store.SaveConfig(ctx, cfg); err != nil {
			h.mu.Lock()
			delete(h.configs, cfg.ID)
			delete(h.statuses, cfg.ID)
			h.mu.Unlock()
			return fmt.Errorf("persist integration %s: %w", cfg.ID, err)
		}
	}

	h.updateRegisteredGauge()
	h.bus.Publish(Event{
		Type:          EventConfigurationChanged,
		IntegrationID: cfg.ID,
		Timestamp:     h.now(),
		Payload:       map[string]any{"action": "registered", "name": cfg.Name, "type": string(cfg.Type)},
	})
	return nil
}

// ReplaceIntegration swaps the stored config for an existing id. ID and type
// are immutable; a replace that changes the type is rejected.
func (h *Hub) ReplaceIntegration(ctx context.Context, cfg IntegrationConfig) error {
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		return err
	}

	mgr, err := h.ManagerFor(cfg.Type)
	if err != nil {
		return err
	}
	if err := mgr.ValidateConfig(cfg); err != nil {
		return fmt.Errorf("invalid %s configuration: %w", cfg.Type, err)
	}

	h.mu.Lock()
	current, exists := h.configs[cfg.ID]
	if !exists {
		h.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, cfg.ID)
	}
	if current.Type != cfg.Type {
		h.mu.Unlock()
		return fmt.Errorf("integration %s type is immutable (%s -> %s)", cfg.ID, current.Type, cfg.Type)
	}
	h.configs[cfg.ID] = cfg
	h.mu.Unlock()

	if h.store != nil {
		if err := h.store.SaveConfig(ctx, cfg); err != nil {
			h.mu.Lock()
			h.configs[cfg.ID] = current
			h.mu.Unlock()
			return fmt.Errorf("persist integration %s: %w", cfg.ID, err)
		}
	}

	h.bus.Publish(Event{
		Type:          EventConfigurationChanged,
		IntegrationID: cfg.ID,
		Timestamp:     h.now(),
		Payload:       map[string]any{"action": "replaced", "name": cfg.Name, "type": string(cfg.Type)},
	})
	return nil
}

// GetIntegration returns the stored config, or nil without error when the id
// is not registered.
func (h *Hub) GetIntegration(_ context.Context, id string) (*IntegrationConfig, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	cfg, ok := h.configs[id]
	if !ok {
		return nil, nil
	}
	out := cfg
	return &out, nil
}

func (h *Hub) ListIntegrations(_ context.Context) ([]IntegrationConfig, error) {
	h.mu.RLock()
	out := make([]IntegrationConfig, 0, len(h.configs))
	for _, cfg := range h.configs {
		out = append(out, cfg)
	}
	h.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// RemoveIntegration deletes the config and its status. Removing an unknown
// id is not an error.
func (h *Hub) RemoveIntegration(ctx context.Context, id string) error {
	h.mu.Lock()
	cfg, existed := h.configs[id]
	delete(h.configs, id)
	delete(h.statuses, id)
	h.mu.Unlock()

	if !existed {
		return nil
	}

	if h.store != nil {
		if err := h.store.DeleteStatus(ctx, id); err != nil {
			slog.Warn("failed to delete persisted status", "integration_id", id, "err", err)
		}
		if err := h.store.DeleteConfig(ctx, id); err != nil {
			return fmt.Errorf("delete integration %s: %w", id, err)
		}
	}

	h.updateRegisteredGauge()
	h.bus.Publish(Event{
		Type:          EventConfigurationChanged,
		IntegrationID: id,
		Timestamp:     h.now(),
		Payload:       map[string]any{"action": "removed", "name": cfg.Name, "type": string(cfg.Type)},
	})
	return nil
}

// Lookup is the config source used by typed managers to resolve the
// integration an operation targets.
func (h *Hub) Lookup(id string) (IntegrationConfig, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	cfg, ok := h.configs[id]
	return cfg, ok
}

// LoadFromStore hydrates the in-memory registry from the persistent store.
// Configs whose type no longer resolves to a manager are skipped with a log
// line rather than failing startup. Persisted statuses carry over so a
// restart does not reset every integration to unknown.
func (h *Hub) LoadFromStore(ctx context.Context) (int, error) {
	if h.store == nil {
		return 0, nil
	}
	configs, err := h.store.ListConfigs(ctx)
	if err != nil {
		return 0, fmt.Errorf("load integrations: %w", err)
	}

	loaded := 0
	for _, cfg := range configs {
		cfg = cfg.Normalized()
		if _, err := h.ManagerFor(cfg.Type); err != nil {
			slog.Warn("skipping persisted integration with unresolvable type",
				"integration_id", cfg.ID, "type", cfg.Type)
			continue
		}

		st := IntegrationStatus{IntegrationID: cfg.ID, State: StateUnknown}
		if persisted, err := h.store.GetStatus(ctx, cfg.ID); err != nil {
			slog.Warn("failed to load persisted status", "integration_id", cfg.ID, "err", err)
		} else if persisted != nil {
			st = *persisted
		}

		h.mu.Lock()
		h.configs[cfg.ID] = cfg
		if _, ok := h.statuses[cfg.ID]; !ok {
			h.statuses[cfg.ID] = st
		}
		h.mu.Unlock()
		loaded++
	}
	h.updateRegisteredGauge()
	return loaded, nil
}

func (h *Hub) updateRegisteredGauge() {
	counts := make(map[IntegrationType]int)
	h.mu.RLock()
	for _, cfg := range h.configs {
		counts[cfg.Type]++
	}
	h.mu.RUnlock()
	for _, t := range []IntegrationType{TypeIdentity, TypeWorkflow, TypeNotification, TypeCICD, TypeMonitoring} {
		metrics.IntegrationsRegistered.WithLabelValues(string(t)).Set(float64(counts[t]))
	}
}

// setStatus replaces the status snapshot for an id and mirrors it to the
// store and the health gauge. Concurrent writers race benignly: each sync
// call owns its own SyncResult and the snapshot is last-to-resolve wins.
func (h *Hub) setStatus(ctx context.Context, st IntegrationStatus) {
	h.mu.Lock()
	if _, ok := h.configs[st.IntegrationID]; !ok {
		// Integration was removed while the operation ran.
		h.mu.Unlock()
		return
	}
	h.statuses[st.IntegrationID] = st
	cfgType := h.configs[st.IntegrationID].Type
	h.mu.Unlock()

	metrics.HealthStatus.WithLabelValues(string(cfgType), st.IntegrationID).Set(st.State.GaugeValue())
	if h.store != nil {
		if err := h.store.SaveStatus(ctx, st); err != nil {
			slog.Warn("failed to persist integration status", "integration_id", st.IntegrationID, "err", err)
			h.bus.Publish(Event{
				Type:          EventErrorOccurred,
				IntegrationID: st.IntegrationID,
				Timestamp:     h.now(),
				Payload:       map[string]any{"error": err.Error(), "source": "status-persist"},
			})
		}
	}
}

func (h *Hub) statusSnapshot(id string) (IntegrationStatus, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	st, ok := h.statuses[id]
	return st, ok
}
