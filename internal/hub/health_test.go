package hub

import (
	"context"
	"errors"
	"testing"
)

func TestHealthCheck_UnknownBeforeFirstSync(t *testing.T) {
	t.Parallel()

	h, _ := newTestHub(t, Options{})
	ctx := context.Background()

	if err := h.RegisterIntegration(ctx, testConfig("fresh", TypeIdentity, false)); err != nil {
		t.Fatalf("RegisterIntegration() error = %v", err)
	}

	statuses, err := h.HealthCheck(ctx, "fresh")
	if err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}
	if len(statuses) != 1 {
		t.Fatalf("len(statuses) = %d, want 1", len(statuses))
	}
	// Disabled and never synced: no probe, neutral state.
	if statuses[0].State != StateUnknown {
		t.Fatalf("State = %s, want unknown", statuses[0].State)
	}
}

func TestHealthCheck_IsolatedPerIntegration(t *testing.T) {
	t.Parallel()

	h, fakes := newTestHub(t, Options{})
	fakes[TypeMonitoring].syncErrByID["unreliable-id"] = errors.New("connection refused")
	ctx := context.Background()

	if err := h.RegisterIntegration(ctx, testConfig("reliable-id", TypeMonitoring, true)); err != nil {
		t.Fatalf("RegisterIntegration() error = %v", err)
	}
	if err := h.RegisterIntegration(ctx, testConfig("unreliable-id", TypeMonitoring, true)); err != nil {
		t.Fatalf("RegisterIntegration() error = %v", err)
	}

	// The unreliable sibling fails its sync.
	if res, err := h.SyncIntegration(ctx, "unreliable-id"); err != nil || res.Success {
		t.Fatalf("unreliable sync = %+v, %v; want resolved failure", res, err)
	}

	statuses, err := h.HealthCheck(ctx, "reliable-id")
	if err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}
	if len(statuses) != 1 {
		t.Fatalf("len(statuses) = %d, want exactly 1", len(statuses))
	}
	st := statuses[0]
	if st.IntegrationID != "reliable-id" {
		t.Fatalf("IntegrationID = %q, want reliable-id", st.IntegrationID)
	}
	if st.State != StateHealthy {
		t.Fatalf("State = %s, want healthy", st.State)
	}
	if st.LastError != "" {
		t.Fatalf("LastError = %q, want empty", st.LastError)
	}
}

func TestHealthCheck_AllEmitsEventPerIntegration(t *testing.T) {
	t.Parallel()

	h, _ := newTestHub(t, Options{})
	ctx := context.Background()
	log := &eventLog{}
	h.Subscribe(EventHealthCheck, log.record)

	for _, id := range []string{"a", "b", "c"} {
		if err := h.RegisterIntegration(ctx, testConfig(id, TypeNotification, true)); err != nil {
			t.Fatalf("RegisterIntegration(%s) error = %v", id, err)
		}
	}

	statuses, err := h.HealthCheck(ctx, "")
	if err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}
	if len(statuses) != 3 {
		t.Fatalf("len(statuses) = %d, want 3", len(statuses))
	}
	if got := len(log.ofType(EventHealthCheck)); got != 3 {
		t.Fatalf("health-check events = %d, want 3", got)
	}
}

func TestHealthCheck_ProbeFailureMarksUnhealthy(t *testing.T) {
	t.Parallel()

	h, fakes := newTestHub(t, Options{})
	fakes[TypeCICD].checkErr = errors.New("503 service unavailable")
	ctx := context.Background()

	if err := h.RegisterIntegration(ctx, testConfig("ci", TypeCICD, true)); err != nil {
		t.Fatalf("RegisterIntegration() error = %v", err)
	}

	statuses, err := h.HealthCheck(ctx, "ci")
	if err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}
	if statuses[0].State != StateUnhealthy {
		t.Fatalf("State = %s, want unhealthy", statuses[0].State)
	}
}

func TestHealthCheck_UnknownIDFails(t *testing.T) {
	t.Parallel()

	h, _ := newTestHub(t, Options{})
	if _, err := h.HealthCheck(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("HealthCheck() error = %v, want ErrNotFound", err)
	}
}
