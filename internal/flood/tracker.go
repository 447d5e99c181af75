package flood

import (
	"sync"
	"time"

	"github.com/iamwavecut/floodgate/internal/config"
)

// ExemptFunc reports whether a user bypasses flood tracking. Exempt users
// never accumulate tracker state.
type ExemptFunc func(userID int64) bool

type actorKey struct {
	chatID int64
	userID int64
}

type Stats struct {
	TrackedActors  int
	BufferedEvents int
}

// Tracker detects message bursts per (user, chat) pair with a sliding
// window. All methods are safe for concurrent use; a single mutex guards
// the whole map, which is plenty at bot scale.
type Tracker struct {
	mu      sync.Mutex
	history map[actorKey][]time.Time

	window      time.Duration
	maxMessages int
	exempt      ExemptFunc

	now func() time.Time
}

func NewTracker(cfg config.Flood, exempt ExemptFunc) *Tracker {
	if exempt == nil {
		exempt = func(int64) bool { return false }
	}
	return &Tracker{
		history:     make(map[actorKey][]time.Time),
		window:      cfg.Window,
		maxMessages: cfg.MaxMessages,
		exempt:      exempt,
		now:         time.Now,
	}
}

// Record registers one inbound message and reports whether the actor has
// exceeded the limit: strictly more than maxMessages still inside the
// window. Pruning happens lazily here; there is no separate expiry timer.
func (t *Tracker) Record(chatID, userID int64) bool {
	if t.exempt(userID) {
		return false
	}

	now := t.now()
	key := actorKey{chatID: chatID, userID: userID}

	t.mu.Lock()
	defer t.mu.Unlock()

	kept := prune(t.history[key], now.Add(-t.window))
	kept = append(kept, now)
	t.history[key] = kept

	return len(kept) > t.maxMessages
}

// Count returns the in-window message count without recording anything.
func (t *Tracker) Count(chatID, userID int64) int {
	now := t.now()
	key := actorKey{chatID: chatID, userID: userID}

	t.mu.Lock()
	defer t.mu.Unlock()

	kept := prune(t.history[key], now.Add(-t.window))
	if len(kept) == 0 {
		delete(t.history, key)
		return 0
	}
	t.history[key] = kept
	return len(kept)
}

// Reset drops an actor's history entirely. Called after a mute is applied
// so the residual burst does not trip the limit again.
func (t *Tracker) Reset(chatID, userID int64) {
	key := actorKey{chatID: chatID, userID: userID}

	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.history, key)
}

// Sweep prunes every tracked actor and evicts the empty ones. It keeps a
// 2x window margin so an in-flight Record never loses entries it still
// counts. Intended for periodic background invocation; correctness does
// not depend on it, only idle memory does.
func (t *Tracker) Sweep() {
	cutoff := t.now().Add(-2 * t.window)

	t.mu.Lock()
	defer t.mu.Unlock()

	for key, timestamps := range t.history {
		kept := prune(timestamps, cutoff)
		if len(kept) == 0 {
			delete(t.history, key)
			continue
		}
		t.history[key] = kept
	}
}

func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := Stats{TrackedActors: len(t.history)}
	for _, timestamps := range t.history {
		stats.BufferedEvents += len(timestamps)
	}
	return stats
}

// prune drops timestamps at or before cutoff, preserving order.
func prune(timestamps []time.Time, cutoff time.Time) []time.Time {
	kept := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}
