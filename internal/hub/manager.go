package hub

import "context"

// Manager is the shared, per-type dispatch target. One manager instance
// serves every integration of its type; each call names the integration it
// acts on through the config snapshot.
//
// Typed managers expose further domain operations (authenticate, create
// item, send notification, trigger pipeline, send metrics) on their concrete
// types; the hub itself only needs validation, sync, and a health probe.
type Manager interface {
	Type() IntegrationType

	// ValidateConfig checks that the type-opaque settings record is
	// structurally plausible for this manager. Called at registration time;
	// a failure rejects the registration.
	ValidateConfig(cfg IntegrationConfig) error

	// Sync performs one synchronization pass and reports the item count.
	// Errors are operational (unreachable endpoint, bad credentials); the
	// orchestrator folds them into the SyncResult instead of propagating.
	Sync(ctx context.Context, cfg IntegrationConfig) (int, error)

	// Check probes liveness independent of sync.
	Check(ctx context.Context, cfg IntegrationConfig) error
}
