package db

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// Client is the violation ledger contract. Mutating operations are atomic
// with respect to each other; once AddViolation returns, any subsequent
// count or stats read observes the new record.
type Client interface {
	Close() error

	AddViolation(ctx context.Context, violation *Violation) (int64, error)
	CountViolationsSince(ctx context.Context, chatID, userID int64, since time.Time, violationType ViolationType) (int, error)
	GetUserStats(ctx context.Context, chatID, userID int64, mutedRecency time.Duration) (*UserStats, error)
	GetRecentViolations(ctx context.Context, since time.Time) ([]*Violation, error)

	// DeactivateViolationsBefore flips active records older than cutoff
	// to inactive. Idempotent; never touches records created after the
	// call began.
	DeactivateViolationsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// DeactivateUserViolations flips all of one actor's active records
	// to inactive; used when an admin lifts a mute early.
	DeactivateUserViolations(ctx context.Context, chatID, userID int64) (int64, error)

	// PurgeViolationsBefore deletes inactive records older than cutoff.
	// Active records survive regardless of age.
	PurgeViolationsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	GetGlobalStats(ctx context.Context) (*GlobalStats, error)
}
