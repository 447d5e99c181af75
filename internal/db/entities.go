package db

import "time"

type ViolationType string

const (
	ViolationTypeRateLimit ViolationType = "rate_limit"
	ViolationTypeManual    ViolationType = "manual"
)

type (
	// Violation is one durable ledger entry. Immutable once written,
	// except for Active which flips true->false exactly once during
	// maintenance and never comes back.
	Violation struct {
		ID                  int64         `db:"id"`
		UserID              int64         `db:"user_id"`
		ChatID              int64         `db:"chat_id"`
		Type                ViolationType `db:"violation_type"`
		Timestamp           time.Time     `db:"timestamp"`
		MuteDurationMinutes int64         `db:"mute_duration_minutes"`
		Active              bool          `db:"active"`
	}

	// UserStats is a read-only aggregate over a user's ledger entries
	// in one chat.
	UserStats struct {
		UserID          int64
		ChatID          int64
		TotalViolations int
		LastViolation   *time.Time
		CurrentlyMuted  bool
	}

	GlobalStats struct {
		TotalViolations  int `db:"total_violations"`
		ActiveViolations int `db:"active_violations"`
		UniqueUsers      int `db:"unique_users"`
		UniqueChats      int `db:"unique_chats"`
	}
)

// MuteDuration returns the stored duration as a time.Duration.
func (v *Violation) MuteDuration() time.Duration {
	return time.Duration(v.MuteDurationMinutes) * time.Minute
}
