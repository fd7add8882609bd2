package managers

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/hubsync/hubsync/internal/hub"
)

// NotificationManager serves chat/alerting endpoints (Slack-style webhooks).
type NotificationManager struct {
	base
}

func NewNotificationManager(deps Deps) *NotificationManager {
	return &NotificationManager{base{typ: hub.TypeNotification, deps: deps}}
}

type Notification struct {
	Channel string         `json:"channel,omitempty"`
	Subject string         `json:"subject,omitempty"`
	Body    string         `json:"body"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func (m *NotificationManager) SendNotification(ctx context.Context, integrationID string, n Notification) hub.Result {
	var data map[string]any
	err := m.call(ctx, integrationID, http.MethodPost, "/notify", n, &data)
	return envelope(data, err)
}

// BroadcastNotification delivers the message to every listed integration
// concurrently. Individual delivery failures are collected rather than
// failing the whole call: the result is successful and reports which
// targets were reached.
func (m *NotificationManager) BroadcastNotification(ctx context.Context, integrationIDs []string, n Notification) hub.Result {
	type failure struct {
		IntegrationID string `json:"integration_id"`
		Error         string `json:"error"`
	}

	var (
		mu         sync.Mutex
		successful []string
		failed     []failure
	)

	var wg sync.WaitGroup
	for _, id := range integrationIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			var data map[string]any
			err := m.call(ctx, id, http.MethodPost, "/notify", n, &data)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, failure{IntegrationID: id, Error: err.Error()})
				return
			}
			successful = append(successful, id)
		}(id)
	}
	wg.Wait()

	sort.Strings(successful)
	sort.Slice(failed, func(i, j int) bool { return failed[i].IntegrationID < failed[j].IntegrationID })
	if successful == nil {
		successful = []string{}
	}
	if failed == nil {
		failed = []failure{}
	}

	return hub.OK(map[string]any{
		"successful": successful,
		"failed":     failed,
	})
}
