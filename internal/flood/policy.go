package flood

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// fallbackMuteDuration is used if the policy is constructed with an empty
// ladder. Config validation rejects that at startup, so hitting it means
// someone wired a Policy by hand.
const fallbackMuteDuration = time.Hour

// Policy maps a violation ordinal to a mute duration using an ordered
// ladder. Pure and deterministic: the same ordinal always yields the same
// duration, and durations never decrease with more violations.
type Policy struct {
	ladder []time.Duration
}

func NewPolicy(ladder []time.Duration) *Policy {
	if len(ladder) == 0 {
		log.Warn("escalation ladder is empty, falling back to a single rung")
		ladder = []time.Duration{fallbackMuteDuration}
	}
	return &Policy{ladder: append([]time.Duration(nil), ladder...)}
}

// MuteDuration returns the rung for the 1-based violation ordinal.
// Ordinals at or below zero map to the first rung; ordinals past the end
// of the ladder clamp to the last rung.
func (p *Policy) MuteDuration(ordinal int) time.Duration {
	if ordinal <= 0 {
		return p.ladder[0]
	}
	index := ordinal - 1
	if index >= len(p.ladder) {
		index = len(p.ladder) - 1
	}
	return p.ladder[index]
}
