package hub

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func TestSyncIntegration_Success(t *testing.T) {
	t.Parallel()

	h, fakes := newTestHub(t, Options{})
	fakes[TypeWorkflow].syncItems = 42
	ctx := context.Background()
	log := &eventLog{}
	h.Subscribe(EventSyncStarted, log.record)
	h.Subscribe(EventSyncCompleted, log.record)

	if err := h.RegisterIntegration(ctx, testConfig("jira", TypeWorkflow, true)); err != nil {
		t.Fatalf("RegisterIntegration() error = %v", err)
	}

	res, err := h.SyncIntegration(ctx, "jira")
	if err != nil {
		t.Fatalf("SyncIntegration() error = %v", err)
	}
	if !res.Success {
		t.Fatalf("Success = false, error %q", res.Error)
	}
	if res.ItemsSynced != 42 {
		t.Fatalf("ItemsSynced = %d, want 42", res.ItemsSynced)
	}
	if res.RunID == "" {
		t.Fatal("RunID is empty")
	}

	if n := len(log.ofType(EventSyncStarted)); n != 1 {
		t.Fatalf("sync-started events = %d, want 1", n)
	}
	if n := len(log.ofType(EventSyncCompleted)); n != 1 {
		t.Fatalf("sync-completed events = %d, want 1", n)
	}

	st, ok := h.statusSnapshot("jira")
	if !ok || st.State != StateHealthy {
		t.Fatalf("status = %+v, want healthy", st)
	}
	if st.LastSync == nil {
		t.Fatal("LastSync not set after successful sync")
	}
}

func TestSyncIntegration_OperationalFailureResolves(t *testing.T) {
	t.Parallel()

	h, fakes := newTestHub(t, Options{})
	fakes[TypeMonitoring].syncErrByID["dd"] = errors.New("endpoint unreachable")
	ctx := context.Background()
	log := &eventLog{}
	h.Subscribe(EventSyncFailed, log.record)
	h.Subscribe(EventSyncCompleted, log.record)

	if err := h.RegisterIntegration(ctx, testConfig("dd", TypeMonitoring, true)); err != nil {
		t.Fatalf("RegisterIntegration() error = %v", err)
	}

	res, err := h.SyncIntegration(ctx, "dd")
	if err != nil {
		t.Fatalf("SyncIntegration() error = %v, want resolved result", err)
	}
	if res.Success {
		t.Fatal("Success = true, want false")
	}
	if res.Error == "" {
		t.Fatal("Error is empty")
	}

	if n := len(log.ofType(EventSyncCompleted)); n != 0 {
		t.Fatalf("sync-completed events = %d, want 0", n)
	}
	if n := len(log.ofType(EventSyncFailed)); n != 1 {
		t.Fatalf("sync-failed events = %d, want 1", n)
	}

	st, _ := h.statusSnapshot("dd")
	if st.State != StateDegraded {
		t.Fatalf("state = %s, want degraded", st.State)
	}
	if st.LastError != "endpoint unreachable" {
		t.Fatalf("LastError = %q", st.LastError)
	}
}

func TestSyncIntegration_UnknownIDRejects(t *testing.T) {
	t.Parallel()

	h, _ := newTestHub(t, Options{})
	log := &eventLog{}
	h.Subscribe(EventSyncStarted, log.record)

	_, err := h.SyncIntegration(context.Background(), "never-registered")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("SyncIntegration() error = %v, want ErrNotFound", err)
	}
	if log.len() != 0 {
		t.Fatal("events emitted for unknown id")
	}
}

func TestSyncIntegration_DisabledFailsFast(t *testing.T) {
	t.Parallel()

	h, fakes := newTestHub(t, Options{})
	ctx := context.Background()
	log := &eventLog{}
	h.Subscribe(EventSyncCompleted, log.record)

	if err := h.RegisterIntegration(ctx, testConfig("paused", TypeIdentity, false)); err != nil {
		t.Fatalf("RegisterIntegration() error = %v", err)
	}

	_, err := h.SyncIntegration(ctx, "paused")
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("SyncIntegration() error = %v, want ErrDisabled", err)
	}
	if len(fakes[TypeIdentity].calls()) != 0 {
		t.Fatal("manager sync called for disabled integration")
	}
	if log.len() != 0 {
		t.Fatal("sync-completed emitted for disabled integration")
	}
}

func TestSyncIntegration_TimeoutIsBounded(t *testing.T) {
	t.Parallel()

	h, fakes := newTestHub(t, Options{SyncTimeout: 50 * time.Millisecond})
	fakes[TypeCICD].syncDelay = 5 * time.Second
	ctx := context.Background()

	if err := h.RegisterIntegration(ctx, testConfig("slow-ci", TypeCICD, true)); err != nil {
		t.Fatalf("RegisterIntegration() error = %v", err)
	}

	start := time.Now()
	res, err := h.SyncIntegration(ctx, "slow-ci")
	if err != nil {
		t.Fatalf("SyncIntegration() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("sync took %v, want bounded by timeout", elapsed)
	}
	if res.Success {
		t.Fatal("Success = true for timed-out sync")
	}
}

func TestSyncIntegration_ConcurrentSameID(t *testing.T) {
	t.Parallel()

	h, _ := newTestHub(t, Options{})
	ctx := context.Background()
	log := &eventLog{}
	h.Subscribe(EventSyncStarted, log.record)
	h.Subscribe(EventSyncCompleted, log.record)
	h.Subscribe(EventSyncFailed, log.record)

	if err := h.RegisterIntegration(ctx, testConfig("shared", TypeNotification, true)); err != nil {
		t.Fatalf("RegisterIntegration() error = %v", err)
	}

	const n = 5
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			res, err := h.SyncIntegration(ctx, "shared")
			if err != nil {
				return err
			}
			if !res.Success {
				return errors.New(res.Error)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent syncs: %v", err)
	}

	if got := len(log.ofType(EventSyncStarted)); got != n {
		t.Fatalf("sync-started events = %d, want %d", got, n)
	}
	if got := len(log.ofType(EventSyncCompleted)); got != n {
		t.Fatalf("sync-completed events = %d, want %d", got, n)
	}
}

func TestSyncAll_AllTypesConcurrently(t *testing.T) {
	t.Parallel()

	h, _ := newTestHub(t, Options{SyncWorkers: 4})
	ctx := context.Background()
	log := &eventLog{}
	h.Subscribe(EventSyncStarted, log.record)
	h.Subscribe(EventSyncCompleted, log.record)
	h.Subscribe(EventSyncFailed, log.record)

	types := []IntegrationType{TypeIdentity, TypeWorkflow, TypeNotification, TypeCICD, TypeMonitoring}
	for i := 0; i < 10; i++ {
		cfg := testConfig(fmt.Sprintf("integration-%d", i), types[i%len(types)], true)
		if err := h.RegisterIntegration(ctx, cfg); err != nil {
			t.Fatalf("RegisterIntegration(%d) error = %v", i, err)
		}
	}

	report, err := h.SyncAll(ctx)
	if err != nil {
		t.Fatalf("SyncAll() error = %v", err)
	}
	if report.Total != 10 || report.Succeeded != 10 || report.Failed != 0 {
		t.Fatalf("report = %+v, want 10/10 success", report)
	}
	for _, res := range report.Results {
		if !res.Success {
			t.Fatalf("result %s failed: %s", res.IntegrationID, res.Error)
		}
	}
	if log.len() < 20 {
		t.Fatalf("event log entries = %d, want at least 20", log.len())
	}
}

func TestSyncAll_PartialFailureDoesNotAbortSiblings(t *testing.T) {
	t.Parallel()

	h, fakes := newTestHub(t, Options{})
	fakes[TypeIdentity].syncErrByID["flaky"] = errors.New("401 unauthorized")
	ctx := context.Background()

	if err := h.RegisterIntegration(ctx, testConfig("flaky", TypeIdentity, true)); err != nil {
		t.Fatalf("RegisterIntegration() error = %v", err)
	}
	if err := h.RegisterIntegration(ctx, testConfig("solid", TypeIdentity, true)); err != nil {
		t.Fatalf("RegisterIntegration() error = %v", err)
	}

	report, err := h.SyncAll(ctx)
	if err != nil {
		t.Fatalf("SyncAll() error = %v", err)
	}
	if report.Succeeded != 1 || report.Failed != 1 {
		t.Fatalf("report = %+v, want 1 success 1 failure", report)
	}
	if len(report.Warnings) != 1 {
		t.Fatalf("warnings = %v, want one entry", report.Warnings)
	}
}

func TestSyncAll_SkipsDisabled(t *testing.T) {
	t.Parallel()

	h, fakes := newTestHub(t, Options{})
	ctx := context.Background()

	if err := h.RegisterIntegration(ctx, testConfig("on", TypeWorkflow, true)); err != nil {
		t.Fatalf("RegisterIntegration() error = %v", err)
	}
	if err := h.RegisterIntegration(ctx, testConfig("off", TypeWorkflow, false)); err != nil {
		t.Fatalf("RegisterIntegration() error = %v", err)
	}

	report, err := h.SyncAll(ctx)
	if err != nil {
		t.Fatalf("SyncAll() error = %v", err)
	}
	if report.Total != 1 {
		t.Fatalf("Total = %d, want 1", report.Total)
	}
	for _, id := range fakes[TypeWorkflow].calls() {
		if id == "off" {
			t.Fatal("disabled integration was synced")
		}
	}
}

func TestSyncReport_Summary(t *testing.T) {
	t.Parallel()

	r := SyncReport{Total: 4, Succeeded: 3, Failed: 1}
	if got := r.Summary(); got != "3/4 integrations synced" {
		t.Fatalf("Summary() = %q", got)
	}
}
