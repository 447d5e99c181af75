package bot

import (
	"testing"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
)

func TestParseMuteDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args    string
		want    time.Duration
		wantErr bool
	}{
		{"", defaultManualMuteDuration, false},
		{"90", 90 * time.Minute, false},
		{" 15 ", 15 * time.Minute, false},
		{"2h30m", 2*time.Hour + 30*time.Minute, false},
		{"0", 0, true},
		{"-5", 0, true},
		{"-1h", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		got, err := parseMuteDuration(tt.args)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tt.args)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tt.args, err)
		}
		if got != tt.want {
			t.Fatalf("%q: got %s want %s", tt.args, got, tt.want)
		}
	}
}

func TestReplyTarget(t *testing.T) {
	t.Parallel()

	if got := replyTarget(&api.Message{}); got != 0 {
		t.Fatalf("no reply: got %d", got)
	}
	msg := &api.Message{
		ReplyToMessage: &api.Message{
			From: &api.User{ID: 42},
		},
	}
	if got := replyTarget(msg); got != 42 {
		t.Fatalf("reply target: got %d want 42", got)
	}
}

func TestOutdated(t *testing.T) {
	t.Parallel()

	fresh := &api.Message{Date: int(time.Now().Unix())}
	if outdated(fresh) {
		t.Fatalf("fresh message flagged outdated")
	}
	stale := &api.Message{Date: int(time.Now().Add(-10 * time.Minute).Unix())}
	if !outdated(stale) {
		t.Fatalf("stale message not flagged")
	}
}
