package hub

import "time"

type EventType string

const (
	EventSyncStarted          EventType = "sync-started"
	EventSyncCompleted        EventType = "sync-completed"
	EventSyncFailed           EventType = "sync-failed"
	EventHealthCheck          EventType = "health-check"
	EventConfigurationChanged EventType = "configuration-changed"
	EventErrorOccurred        EventType = "error-occurred"
)

// Event is a single lifecycle notification. Events are transient: delivered
// to the listeners subscribed at emission time, never persisted or replayed.
// Payloads must not carry credential material; emitters use Redacted views.
type Event struct {
	Type          EventType      `json:"type"`
	IntegrationID string         `json:"integration_id"`
	Timestamp     time.Time      `json:"timestamp"`
	Payload       map[string]any `json:"payload,omitempty"`
}
