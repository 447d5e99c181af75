package moderation

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/floodgate/internal/config"
	"github.com/iamwavecut/floodgate/internal/flood"
)

const (
	sweepInterval      = 5 * time.Minute
	deactivateInterval = time.Hour
	purgeInterval      = 24 * time.Hour
)

type maintenanceStore interface {
	DeactivateViolationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	PurgeViolationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Maintenance runs the periodic housekeeping passes: tracker sweeps,
// violation deactivation and retention purges. Every pass is idempotent
// and safe to interrupt, so restarts cost nothing.
type Maintenance struct {
	tracker *flood.Tracker
	store   maintenanceStore
	cfg     config.Escalation

	runMutex  sync.Mutex
	started   bool
	runCancel context.CancelFunc
	workersWg sync.WaitGroup
}

func NewMaintenance(tracker *flood.Tracker, store maintenanceStore, cfg config.Escalation) *Maintenance {
	return &Maintenance{
		tracker: tracker,
		store:   store,
		cfg:     cfg,
	}
}

func (m *Maintenance) Start(ctx context.Context) error {
	m.runMutex.Lock()
	defer m.runMutex.Unlock()
	if m.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.runCancel = cancel

	m.workersWg.Add(1)
	go func() {
		defer m.workersWg.Done()
		m.run(runCtx)
	}()

	m.started = true
	return nil
}

func (m *Maintenance) Stop(ctx context.Context) error {
	m.runMutex.Lock()
	if !m.started {
		m.runMutex.Unlock()
		return nil
	}
	m.started = false
	cancel := m.runCancel
	m.runMutex.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.workersWg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (m *Maintenance) run(ctx context.Context) {
	sweep := time.NewTicker(sweepInterval)
	defer sweep.Stop()
	deactivate := time.NewTicker(deactivateInterval)
	defer deactivate.Stop()
	purge := time.NewTicker(purgeInterval)
	defer purge.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.C:
			m.tracker.Sweep()
		case <-deactivate.C:
			m.deactivateStale(ctx)
		case <-purge.C:
			m.purgeExpired(ctx)
		}
	}
}

func (m *Maintenance) deactivateStale(ctx context.Context) {
	cutoff := time.Now().Add(-m.cfg.DeactivateAfter)
	affected, err := m.store.DeactivateViolationsBefore(ctx, cutoff)
	if err != nil {
		log.WithField("error", err.Error()).Error("failed to deactivate stale violations")
		return
	}
	if affected > 0 {
		log.WithField("count", affected).Debug("deactivated stale violations")
	}
}

func (m *Maintenance) purgeExpired(ctx context.Context) {
	cutoff := time.Now().Add(-m.cfg.Retention)
	purged, err := m.store.PurgeViolationsBefore(ctx, cutoff)
	if err != nil {
		log.WithField("error", err.Error()).Error("failed to purge expired violations")
		return
	}
	if purged > 0 {
		log.WithField("count", purged).Info("purged expired violations")
	}
}
