// Package managers provides the typed manager implementations behind the
// hub's dispatch table. Every manager speaks the uniform endpoint contract:
// JSON over HTTP against the base URL declared in the integration's
// settings, authenticated with the integration's resolved credentials.
package managers

import (
	"net/http"
	"time"

	"github.com/hubsync/hubsync/internal/hub"
	"github.com/hubsync/hubsync/internal/secrets"
)

const defaultRequestTimeout = 30 * time.Second

// ConfigSource resolves the integration a per-call operation targets.
// *hub.Hub satisfies it.
type ConfigSource interface {
	Lookup(id string) (hub.IntegrationConfig, bool)
}

type Deps struct {
	Source   ConfigSource
	Resolver secrets.Resolver
	Client   *http.Client
}

func (d Deps) normalized() Deps {
	out := d
	if out.Resolver == nil {
		out.Resolver = secrets.StaticResolver{}
	}
	if out.Client == nil {
		out.Client = &http.Client{Timeout: defaultRequestTimeout}
	}
	return out
}

// Wire builds the five typed managers and installs them on the hub.
func Wire(h *hub.Hub, deps Deps) error {
	if deps.Source == nil {
		deps.Source = h
	}
	deps = deps.normalized()

	all := []hub.Manager{
		NewIdentityManager(deps),
		NewWorkflowManager(deps),
		NewNotificationManager(deps),
		NewCICDManager(deps),
		NewMonitoringManager(deps),
	}
	for _, m := range all {
		if err := h.RegisterManager(m); err != nil {
			return err
		}
	}
	return nil
}
