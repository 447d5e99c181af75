package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iamwavecut/floodgate/internal/db"
)

func (s *sqliteClient) AddViolation(ctx context.Context, violation *db.Violation) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO user_violations (user_id, chat_id, violation_type, timestamp, mute_duration_minutes, active)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		violation.UserID,
		violation.ChatID,
		violation.Type,
		violation.Timestamp.UTC(),
		violation.MuteDurationMinutes,
		violation.Active,
	)
	if err != nil {
		return 0, fmt.Errorf("insert violation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("violation id: %w", err)
	}
	violation.ID = id
	return id, nil
}

func (s *sqliteClient) CountViolationsSince(ctx context.Context, chatID, userID int64, since time.Time, violationType db.ViolationType) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM user_violations
		WHERE chat_id = ? AND user_id = ? AND violation_type = ? AND timestamp > ?
	`, chatID, userID, violationType, since.UTC())
	if err != nil {
		return 0, fmt.Errorf("count violations: %w", err)
	}
	return count, nil
}

func (s *sqliteClient) GetUserStats(ctx context.Context, chatID, userID int64, mutedRecency time.Duration) (*db.UserStats, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stats := &db.UserStats{UserID: userID, ChatID: chatID}

	err := s.db.GetContext(ctx, &stats.TotalViolations, `
		SELECT COUNT(*) FROM user_violations
		WHERE chat_id = ? AND user_id = ?
	`, chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("total violations: %w", err)
	}

	var last time.Time
	err = s.db.GetContext(ctx, &last, `
		SELECT timestamp FROM user_violations
		WHERE chat_id = ? AND user_id = ?
		ORDER BY timestamp DESC LIMIT 1
	`, chatID, userID)
	switch {
	case err == nil:
		stats.LastViolation = &last
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, fmt.Errorf("last violation: %w", err)
	}

	// "Currently muted" is answered from the ledger alone: an active
	// record inside the recency horizon.
	var active int
	err = s.db.GetContext(ctx, &active, `
		SELECT COUNT(*) FROM user_violations
		WHERE chat_id = ? AND user_id = ? AND active = 1 AND timestamp > ?
	`, chatID, userID, time.Now().Add(-mutedRecency).UTC())
	if err != nil {
		return nil, fmt.Errorf("active violations: %w", err)
	}
	stats.CurrentlyMuted = active > 0

	return stats, nil
}

func (s *sqliteClient) GetRecentViolations(ctx context.Context, since time.Time) ([]*db.Violation, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var violations []*db.Violation
	err := s.db.SelectContext(ctx, &violations, `
		SELECT * FROM user_violations
		WHERE timestamp > ?
		ORDER BY timestamp DESC
	`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("recent violations: %w", err)
	}
	return violations, nil
}

func (s *sqliteClient) DeactivateViolationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	result, err := s.db.ExecContext(ctx, `
		UPDATE user_violations SET active = 0
		WHERE timestamp < ? AND active = 1
	`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("deactivate violations: %w", err)
	}
	return result.RowsAffected()
}

func (s *sqliteClient) DeactivateUserViolations(ctx context.Context, chatID, userID int64) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	result, err := s.db.ExecContext(ctx, `
		UPDATE user_violations SET active = 0
		WHERE chat_id = ? AND user_id = ? AND active = 1
	`, chatID, userID)
	if err != nil {
		return 0, fmt.Errorf("deactivate user violations: %w", err)
	}
	return result.RowsAffected()
}

func (s *sqliteClient) PurgeViolationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	// Active records are never purged, no matter how old.
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM user_violations
		WHERE timestamp < ? AND active = 0
	`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge violations: %w", err)
	}
	return result.RowsAffected()
}

func (s *sqliteClient) GetGlobalStats(ctx context.Context) (*db.GlobalStats, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stats := &db.GlobalStats{}
	err := s.db.GetContext(ctx, stats, `
		SELECT
			COUNT(*) AS total_violations,
			COALESCE(SUM(active), 0) AS active_violations,
			COUNT(DISTINCT user_id) AS unique_users,
			COUNT(DISTINCT chat_id) AS unique_chats
		FROM user_violations
	`)
	if err != nil {
		return nil, fmt.Errorf("global stats: %w", err)
	}
	return stats, nil
}
