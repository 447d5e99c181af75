package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/iamwavecut/floodgate/internal/moderation"
)

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    time.Duration
		want string
	}{
		{time.Minute, "1 minute"},
		{45 * time.Minute, "45 minutes"},
		{time.Hour, "1 hour"},
		{6 * time.Hour, "6 hours"},
		{24 * time.Hour, "1 day"},
		{7 * 24 * time.Hour, "7 days"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Fatalf("%s: got %q want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatMuteEvent(t *testing.T) {
	t.Parallel()

	event := moderation.MuteEvent{
		ChatID:      -100123,
		UserID:      7,
		DisplayName: "flooder",
		Ordinal:     3,
		Duration:    24 * time.Hour,
		Reason:      moderation.ReasonRateLimit,
		At:          time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC),
	}

	text := formatMuteEvent(event)
	for _, want := range []string{
		"Auto-Mute Applied",
		"flooder",
		"`7`",
		"`-100123`",
		"*Violation #:* 3",
		"1 day",
		"2026-08-26 12:00:00 UTC",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("notification missing %q:\n%s", want, text)
		}
	}

	event.Manual = true
	if !strings.Contains(formatMuteEvent(event), "Manual Mute Applied") {
		t.Fatalf("manual event must be titled as manual")
	}
}
