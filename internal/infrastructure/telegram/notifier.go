package telegram

import (
	"context"
	"fmt"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pborman/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/floodgate/internal/config"
	"github.com/iamwavecut/floodgate/internal/moderation"
)

// AdminNotifier delivers moderation events to the configured notification
// chat, or to individual admin DMs when no chat is configured. Delivery is
// best-effort: failures are logged and swallowed.
type AdminNotifier struct {
	bot *api.BotAPI
	cfg *config.Config
}

func NewAdminNotifier(bot *api.BotAPI, cfg *config.Config) *AdminNotifier {
	return &AdminNotifier{bot: bot, cfg: cfg}
}

func (n *AdminNotifier) NotifyMuteApplied(ctx context.Context, event moderation.MuteEvent) {
	if !n.cfg.NotifyAdmins {
		return
	}
	if event.ID == "" {
		event.ID = uuid.New()
	}

	l := log.WithFields(log.Fields{
		"event_id": event.ID,
		"chat_id":  event.ChatID,
		"user_id":  event.UserID,
	})

	text := formatMuteEvent(event)
	if n.cfg.NotificationChatID != 0 {
		n.send(l, n.cfg.NotificationChatID, text)
		return
	}
	for _, adminID := range n.cfg.AdminIDs {
		n.send(l, adminID, text)
	}
}

func (n *AdminNotifier) send(l *log.Entry, chatID int64, text string) {
	msg := api.NewMessage(chatID, text)
	msg.ParseMode = api.ModeMarkdown
	if _, err := n.bot.Send(msg); err != nil {
		l.WithFields(log.Fields{"target": chatID, "error": err.Error()}).
			Warn("failed to send moderation notification")
	}
}

func formatMuteEvent(event moderation.MuteEvent) string {
	title := "🔇 *Auto-Mute Applied*"
	if event.Manual {
		title = "🔇 *Manual Mute Applied*"
	}
	return fmt.Sprintf(
		"%s\n\n"+
			"*User:* %s (`%d`)\n"+
			"*Chat ID:* `%d`\n"+
			"*Violation #:* %d\n"+
			"*Duration:* %s\n"+
			"*Reason:* %s\n"+
			"*Time:* %s UTC",
		title,
		event.DisplayName,
		event.UserID,
		event.ChatID,
		event.Ordinal,
		formatDuration(event.Duration),
		event.Reason,
		event.At.UTC().Format("2006-01-02 15:04:05"),
	)
}

// formatDuration renders a mute length the way admins read it: minutes
// under an hour, hours under a day, days beyond.
func formatDuration(d time.Duration) string {
	minutes := int(d / time.Minute)
	switch {
	case minutes < 60:
		return fmt.Sprintf("%d minute%s", minutes, plural(minutes))
	case minutes < 1440:
		hours := minutes / 60
		return fmt.Sprintf("%d hour%s", hours, plural(hours))
	default:
		days := minutes / 1440
		return fmt.Sprintf("%d day%s", days, plural(days))
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
