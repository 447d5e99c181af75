package moderation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/iamwavecut/floodgate/internal/flood"
)

type fakeMaintenanceStore struct {
	mu              sync.Mutex
	deactivateCalls []time.Time
	purgeCalls      []time.Time
}

func (f *fakeMaintenanceStore) DeactivateViolationsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deactivateCalls = append(f.deactivateCalls, cutoff)
	return 1, nil
}

func (f *fakeMaintenanceStore) PurgeViolationsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purgeCalls = append(f.purgeCalls, cutoff)
	return 1, nil
}

func maintenanceFixture() (*Maintenance, *fakeMaintenanceStore) {
	store := &fakeMaintenanceStore{}
	cfg := testConfig()
	tracker := flood.NewTracker(cfg.Flood, nil)
	return NewMaintenance(tracker, store, cfg.Escalation), store
}

func TestMaintenanceStartStopIsIdempotent(t *testing.T) {
	t.Parallel()

	m, _ := maintenanceFixture()
	ctx := context.Background()

	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Start(ctx); err != nil {
		t.Fatalf("second start: %v", err)
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := m.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := m.Stop(stopCtx); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestMaintenancePassesUseConfiguredHorizons(t *testing.T) {
	t.Parallel()

	m, store := maintenanceFixture()
	ctx := context.Background()

	before := time.Now()
	m.deactivateStale(ctx)
	m.purgeExpired(ctx)

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.deactivateCalls) != 1 || len(store.purgeCalls) != 1 {
		t.Fatalf("expected one call each, got %d/%d", len(store.deactivateCalls), len(store.purgeCalls))
	}

	wantDeactivate := before.Add(-m.cfg.DeactivateAfter)
	if store.deactivateCalls[0].Before(wantDeactivate.Add(-time.Minute)) || store.deactivateCalls[0].After(wantDeactivate.Add(time.Minute)) {
		t.Fatalf("deactivate cutoff %s not near %s", store.deactivateCalls[0], wantDeactivate)
	}
	wantPurge := before.Add(-m.cfg.Retention)
	if store.purgeCalls[0].Before(wantPurge.Add(-time.Minute)) || store.purgeCalls[0].After(wantPurge.Add(time.Minute)) {
		t.Fatalf("purge cutoff %s not near %s", store.purgeCalls[0], wantPurge)
	}
}
