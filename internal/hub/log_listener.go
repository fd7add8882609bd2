package hub

import "log/slog"

// LogListener is a bus handler that writes every lifecycle event to a slog
// logger. Payloads reaching the bus are already credential-free.
type LogListener struct {
	Logger *slog.Logger
}

// Attach subscribes the listener to every event type on the bus.
func (l *LogListener) Attach(b *Bus) {
	b.SubscribeAll(l.Handle)
}

func (l *LogListener) Handle(e Event) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{"integration_id", e.IntegrationID}
	for k, v := range e.Payload {
		if k == "error" {
			continue
		}
		attrs = append(attrs, k, v)
	}

	switch e.Type {
	case EventSyncFailed, EventErrorOccurred:
		if msg, ok := e.Payload["error"].(string); ok && msg != "" {
			attrs = append(attrs, "err", msg)
		}
		logger.Error(string(e.Type), attrs...)
	case EventSyncStarted, EventSyncCompleted, EventConfigurationChanged:
		logger.Info(string(e.Type), attrs...)
	default:
		logger.Debug(string(e.Type), attrs...)
	}
}
