package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/floodgate/internal/infrastructure/telegram"
	"github.com/iamwavecut/floodgate/internal/moderation"
)

const (
	// UpdateTimeout drops updates that sat in the long-poll backlog for
	// too long; muting someone for a five-minute-old burst helps nobody.
	UpdateTimeout = 5 * time.Minute

	defaultManualMuteDuration = time.Hour
)

// UpdateProcessor routes inbound updates: plain group messages feed the
// moderation coordinator, admin commands are dispatched directly.
type UpdateProcessor struct {
	s           Service
	coordinator *moderation.Coordinator
	operations  *telegram.Operations
}

func NewUpdateProcessor(s Service, coordinator *moderation.Coordinator, operations *telegram.Operations) *UpdateProcessor {
	return &UpdateProcessor{
		s:           s,
		coordinator: coordinator,
		operations:  operations,
	}
}

func (up *UpdateProcessor) Process(ctx context.Context, u *api.Update) error {
	if u == nil {
		return errors.New("update is nil")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	msg := u.Message
	if msg == nil || msg.From == nil {
		return nil
	}
	if outdated(msg) {
		log.WithFields(log.Fields{
			"chat_id": msg.Chat.ID,
			"age":     time.Since(time.Unix(int64(msg.Date), 0)),
		}).Debug("skipping outdated update")
		return nil
	}

	if msg.IsCommand() {
		return up.processCommand(ctx, msg)
	}
	return up.processMessage(ctx, msg)
}

func (up *UpdateProcessor) processMessage(ctx context.Context, msg *api.Message) error {
	outcome, err := up.coordinator.HandleMessage(ctx, msg.Chat.ID, msg.From.ID)
	if err != nil {
		return errors.Wrap(err, "handle message")
	}
	if outcome == nil || !outcome.Applied {
		return nil
	}

	// The burst message itself goes away once the mute landed.
	if err := up.operations.DeleteMessage(ctx, msg.Chat.ID, msg.MessageID); err != nil {
		log.WithFields(log.Fields{
			"chat_id":    msg.Chat.ID,
			"message_id": msg.MessageID,
			"error":      err.Error(),
		}).Warn("failed to delete flood message")
	}
	return nil
}

func (up *UpdateProcessor) processCommand(ctx context.Context, msg *api.Message) error {
	cfg := up.s.GetConfig()
	if !cfg.IsAdmin(msg.From.ID) {
		return nil
	}

	switch msg.Command() {
	case "mute":
		return up.commandMute(ctx, msg)
	case "unmute":
		return up.commandUnmute(ctx, msg)
	case "status":
		return up.commandStatus(ctx, msg)
	case "stats":
		return up.commandStats(ctx, msg)
	default:
		return nil
	}
}

func (up *UpdateProcessor) commandMute(ctx context.Context, msg *api.Message) error {
	target := replyTarget(msg)
	if target == 0 {
		up.reply(msg, "Reply to a message of the user you want to mute.")
		return nil
	}

	duration, err := parseMuteDuration(msg.CommandArguments())
	if err != nil {
		up.reply(msg, fmt.Sprintf("Bad duration: %v", err))
		return nil
	}

	outcome, err := up.coordinator.ManualMute(ctx, msg.Chat.ID, target, duration, "manual mute by admin")
	if err != nil {
		return errors.Wrap(err, "manual mute")
	}
	if !outcome.Applied {
		up.reply(msg, fmt.Sprintf("Mute failed: %v", outcome.Err))
		return nil
	}
	up.reply(msg, fmt.Sprintf("Muted %s for %s.", outcome.DisplayName, duration))
	return nil
}

func (up *UpdateProcessor) commandUnmute(ctx context.Context, msg *api.Message) error {
	target := replyTarget(msg)
	if target == 0 {
		up.reply(msg, "Reply to a message of the user you want to unmute.")
		return nil
	}
	if err := up.coordinator.Unmute(ctx, msg.Chat.ID, target); err != nil {
		up.reply(msg, fmt.Sprintf("Unmute failed: %v", err))
		return nil
	}
	up.reply(msg, "Unmuted.")
	return nil
}

func (up *UpdateProcessor) commandStatus(ctx context.Context, msg *api.Message) error {
	target := replyTarget(msg)
	if target == 0 {
		target = msg.From.ID
	}
	status, err := up.coordinator.Status(ctx, msg.Chat.ID, target)
	if err != nil {
		return errors.Wrap(err, "status")
	}

	lines := []string{
		fmt.Sprintf("User %d in chat %d:", status.UserID, status.ChatID),
		fmt.Sprintf("violations: %d", status.TotalViolations),
		fmt.Sprintf("messages in window: %d", status.CurrentMessageCount),
		fmt.Sprintf("currently muted: %v", status.CurrentlyMuted),
		fmt.Sprintf("exempt: %v", status.Exempt),
	}
	if status.LastViolation != nil {
		lines = append(lines, fmt.Sprintf("last violation: %s", status.LastViolation.UTC().Format(time.DateTime)))
	}
	up.reply(msg, strings.Join(lines, "\n"))
	return nil
}

func (up *UpdateProcessor) commandStats(ctx context.Context, msg *api.Message) error {
	overview, err := up.coordinator.Overview(ctx)
	if err != nil {
		return errors.Wrap(err, "overview")
	}
	up.reply(msg, fmt.Sprintf(
		"Violations: %d total, %d active\nUsers: %d, chats: %d\nTracked actors: %d, buffered events: %d",
		overview.Ledger.TotalViolations,
		overview.Ledger.ActiveViolations,
		overview.Ledger.UniqueUsers,
		overview.Ledger.UniqueChats,
		overview.Tracker.TrackedActors,
		overview.Tracker.BufferedEvents,
	))
	return nil
}

func (up *UpdateProcessor) reply(msg *api.Message, text string) {
	reply := api.NewMessage(msg.Chat.ID, text)
	reply.ReplyParameters.MessageID = msg.MessageID
	if _, err := up.s.GetBot().Send(reply); err != nil {
		log.WithFields(log.Fields{"chat_id": msg.Chat.ID, "error": err.Error()}).
			Warn("failed to send command reply")
	}
}

func outdated(msg *api.Message) bool {
	return time.Since(time.Unix(int64(msg.Date), 0)) > UpdateTimeout
}

func replyTarget(msg *api.Message) int64 {
	if msg.ReplyToMessage == nil || msg.ReplyToMessage.From == nil {
		return 0
	}
	return msg.ReplyToMessage.From.ID
}

// parseMuteDuration accepts either a bare minute count ("90") or a Go
// duration string ("2h30m"); empty input falls back to one hour.
func parseMuteDuration(args string) (time.Duration, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return defaultManualMuteDuration, nil
	}
	if minutes, err := strconv.Atoi(args); err == nil {
		if minutes <= 0 {
			return 0, fmt.Errorf("minutes must be positive, got %d", minutes)
		}
		return time.Duration(minutes) * time.Minute, nil
	}
	duration, err := time.ParseDuration(args)
	if err != nil {
		return 0, fmt.Errorf("expected minutes or a duration like 2h30m: %w", err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", duration)
	}
	return duration, nil
}
