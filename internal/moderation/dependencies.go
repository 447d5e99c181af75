package moderation

import (
	"context"
	"time"

	"github.com/iamwavecut/floodgate/internal/db"
)

// Actuator is the remote restriction mechanism. Calls go over the wire and
// may fail; implementations classify failures via ActuationError.
type Actuator interface {
	// Restrict mutes the user until the given time and returns the
	// user's display name when it can be resolved.
	Restrict(ctx context.Context, chatID, userID int64, until time.Time) (string, error)
	Unrestrict(ctx context.Context, chatID, userID int64) error
	LookupDisplayName(ctx context.Context, chatID, userID int64) (string, error)
}

// MuteEvent is the structured payload handed to the Notifier after a
// restriction is applied.
type MuteEvent struct {
	ID          string
	ChatID      int64
	UserID      int64
	DisplayName string
	Ordinal     int
	Duration    time.Duration
	Reason      string
	Manual      bool
	At          time.Time
}

// Notifier is fire-and-forget: implementations log their own failures and
// never propagate them into the moderation path.
type Notifier interface {
	NotifyMuteApplied(ctx context.Context, event MuteEvent)
}

type ledger interface {
	AddViolation(ctx context.Context, violation *db.Violation) (int64, error)
	CountViolationsSince(ctx context.Context, chatID, userID int64, since time.Time, violationType db.ViolationType) (int, error)
	GetUserStats(ctx context.Context, chatID, userID int64, mutedRecency time.Duration) (*db.UserStats, error)
	DeactivateUserViolations(ctx context.Context, chatID, userID int64) (int64, error)
	GetGlobalStats(ctx context.Context) (*db.GlobalStats, error)
}
