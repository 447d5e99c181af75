package moderation

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/floodgate/internal/config"
	"github.com/iamwavecut/floodgate/internal/db"
	"github.com/iamwavecut/floodgate/internal/flood"
	"github.com/iamwavecut/floodgate/internal/observability"
)

const ReasonRateLimit = "rate limit exceeded"

type (
	// MuteOutcome is the closed result of one escalation attempt.
	// Applied=false always carries the failure cause; the violation
	// record stays in the ledger either way.
	MuteOutcome struct {
		Applied      bool
		ViolationID  int64
		Ordinal      int
		Duration     time.Duration
		DisplayName  string
		FailureCause ActuationCause
		Err          error
	}

	// UserStatus is a read-only snapshot composed from the ledger, the
	// tracker and the exemption configuration.
	UserStatus struct {
		UserID              int64
		ChatID              int64
		TotalViolations     int
		LastViolation       *time.Time
		CurrentlyMuted      bool
		CurrentMessageCount int
		Exempt              bool
		Admin               bool
		Whitelisted         bool
	}

	Overview struct {
		Ledger  db.GlobalStats
		Tracker flood.Stats
	}
)

// Coordinator orchestrates tracker, policy, ledger and actuator into one
// logical transaction per triggering message. It owns no durable state.
type Coordinator struct {
	cfg      *config.Config
	tracker  *flood.Tracker
	policy   *flood.Policy
	store    ledger
	actuator Actuator
	notifier Notifier
}

func NewCoordinator(cfg *config.Config, tracker *flood.Tracker, policy *flood.Policy, store ledger, actuator Actuator, notifier Notifier) *Coordinator {
	return &Coordinator{
		cfg:      cfg,
		tracker:  tracker,
		policy:   policy,
		store:    store,
		actuator: actuator,
		notifier: notifier,
	}
}

// HandleMessage runs the escalation pipeline for one inbound message.
// Returns (nil, nil) when the actor is exempt or within limits. A non-nil
// error means the ledger write failed and no actuation was attempted;
// tracker state is left intact in that case and self-heals within one
// window.
func (c *Coordinator) HandleMessage(ctx context.Context, chatID, userID int64) (*MuteOutcome, error) {
	done := observability.StartHandling()
	exceeded := c.tracker.Record(chatID, userID)
	if !exceeded {
		done("pass")
		return nil, nil
	}

	l := log.WithFields(log.Fields{"chat_id": chatID, "user_id": userID})
	l.Info("rate limit exceeded")

	ordinal, err := c.violationOrdinal(ctx, chatID, userID)
	if err != nil {
		done("ledger_error")
		return nil, err
	}
	duration := c.policy.MuteDuration(ordinal)

	// The record is written before the actuation attempt: a crash in
	// between leaves an over-counted audit trail, never a silent mute.
	violationID, err := c.store.AddViolation(ctx, &db.Violation{
		UserID:              userID,
		ChatID:              chatID,
		Type:                db.ViolationTypeRateLimit,
		Timestamp:           time.Now(),
		MuteDurationMinutes: int64(duration / time.Minute),
		Active:              true,
	})
	if err != nil {
		done("ledger_error")
		return nil, fmt.Errorf("record violation: %w", err)
	}
	observability.RecordViolation(string(db.ViolationTypeRateLimit))

	outcome := &MuteOutcome{
		ViolationID: violationID,
		Ordinal:     ordinal,
		Duration:    duration,
	}

	displayName, err := c.restrict(ctx, chatID, userID, duration)
	if err != nil {
		cause := CauseOf(err)
		observability.RecordActuationFailure(string(cause))
		l.WithField("cause", cause).WithField("error", err.Error()).Error("failed to apply mute")
		outcome.FailureCause = cause
		outcome.Err = err
		done("actuation_failed")
		return outcome, nil
	}

	outcome.Applied = true
	outcome.DisplayName = displayName

	// Drop the residual burst so it cannot re-trigger immediately.
	c.tracker.Reset(chatID, userID)

	c.notify(ctx, MuteEvent{
		ChatID:      chatID,
		UserID:      userID,
		DisplayName: displayName,
		Ordinal:     ordinal,
		Duration:    duration,
		Reason:      ReasonRateLimit,
		At:          time.Now(),
	})
	done("muted")
	return outcome, nil
}

// ManualMute applies an admin-initiated mute. It bypasses the tracker but
// still writes through the ledger; manual records never feed the
// rate-limit escalation ordinal.
func (c *Coordinator) ManualMute(ctx context.Context, chatID, userID int64, duration time.Duration, reason string) (*MuteOutcome, error) {
	violationID, err := c.store.AddViolation(ctx, &db.Violation{
		UserID:              userID,
		ChatID:              chatID,
		Type:                db.ViolationTypeManual,
		Timestamp:           time.Now(),
		MuteDurationMinutes: int64(duration / time.Minute),
		Active:              true,
	})
	if err != nil {
		return nil, fmt.Errorf("record manual violation: %w", err)
	}
	observability.RecordViolation(string(db.ViolationTypeManual))

	outcome := &MuteOutcome{
		ViolationID: violationID,
		Duration:    duration,
	}

	displayName, err := c.restrict(ctx, chatID, userID, duration)
	if err != nil {
		cause := CauseOf(err)
		observability.RecordActuationFailure(string(cause))
		outcome.FailureCause = cause
		outcome.Err = err
		return outcome, nil
	}

	outcome.Applied = true
	outcome.DisplayName = displayName

	c.notify(ctx, MuteEvent{
		ChatID:      chatID,
		UserID:      userID,
		DisplayName: displayName,
		Duration:    duration,
		Reason:      reason,
		Manual:      true,
		At:          time.Now(),
	})
	return outcome, nil
}

// Unmute lifts restrictions early and deactivates the actor's active
// ledger records so status reporting stops claiming a mute.
func (c *Coordinator) Unmute(ctx context.Context, chatID, userID int64) error {
	actCtx, cancel := context.WithTimeout(ctx, c.cfg.ActuatorTimeout)
	defer cancel()

	if err := c.actuator.Unrestrict(actCtx, chatID, userID); err != nil {
		observability.RecordActuationFailure(string(CauseOf(err)))
		return fmt.Errorf("unrestrict: %w", err)
	}
	if _, err := c.store.DeactivateUserViolations(ctx, chatID, userID); err != nil {
		return fmt.Errorf("deactivate violations: %w", err)
	}
	return nil
}

// Status composes a read-only snapshot; it mutates neither the tracker
// nor the ledger.
func (c *Coordinator) Status(ctx context.Context, chatID, userID int64) (*UserStatus, error) {
	stats, err := c.store.GetUserStats(ctx, chatID, userID, c.cfg.Escalation.MutedRecency)
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	return &UserStatus{
		UserID:              userID,
		ChatID:              chatID,
		TotalViolations:     stats.TotalViolations,
		LastViolation:       stats.LastViolation,
		CurrentlyMuted:      stats.CurrentlyMuted,
		CurrentMessageCount: c.tracker.Count(chatID, userID),
		Exempt:              c.cfg.IsExempt(userID),
		Admin:               c.cfg.IsAdmin(userID),
		Whitelisted:         c.cfg.IsWhitelisted(userID),
	}, nil
}

func (c *Coordinator) Overview(ctx context.Context) (*Overview, error) {
	global, err := c.store.GetGlobalStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("global stats: %w", err)
	}
	return &Overview{
		Ledger:  *global,
		Tracker: c.tracker.Stats(),
	}, nil
}

func (c *Coordinator) violationOrdinal(ctx context.Context, chatID, userID int64) (int, error) {
	since := time.Now().Add(-c.cfg.Escalation.Lookback)
	count, err := c.store.CountViolationsSince(ctx, chatID, userID, since, db.ViolationTypeRateLimit)
	if err != nil {
		return 0, fmt.Errorf("count violations: %w", err)
	}
	return count + 1, nil
}

// restrict performs the single bounded actuation attempt. No retries:
// retrying a possibly-applied restriction risks doubling it.
func (c *Coordinator) restrict(ctx context.Context, chatID, userID int64, duration time.Duration) (string, error) {
	actCtx, cancel := context.WithTimeout(ctx, c.cfg.ActuatorTimeout)
	defer cancel()
	return c.actuator.Restrict(actCtx, chatID, userID, time.Now().Add(duration))
}

func (c *Coordinator) notify(ctx context.Context, event MuteEvent) {
	if c.notifier == nil {
		return
	}
	go c.notifier.NotifyMuteApplied(context.WithoutCancel(ctx), event)
}
