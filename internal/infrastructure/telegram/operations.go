package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/floodgate/internal/moderation"
)

// Operations implements the moderation actuator over the Telegram Bot API.
type Operations struct {
	bot *api.BotAPI
}

func NewOperations(bot *api.BotAPI) *Operations {
	return &Operations{bot: bot}
}

// Restrict mutes a user until the given time. The display name lookup is
// best-effort: a restriction must not fail just because the name did.
func (o *Operations) Restrict(ctx context.Context, chatID, userID int64, until time.Time) (string, error) {
	displayName, err := o.LookupDisplayName(ctx, chatID, userID)
	if err != nil {
		log.WithFields(log.Fields{"chat_id": chatID, "user_id": userID, "error": err.Error()}).
			Warn("could not resolve display name")
		displayName = fmt.Sprintf("User_%d", userID)
	}

	config := api.RestrictChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
			UserID: userID,
		},
		UntilDate: until.Unix(),
		Permissions: &api.ChatPermissions{
			CanSendMessages:       false,
			CanSendPolls:          false,
			CanSendOtherMessages:  false,
			CanAddWebPagePreviews: false,
			CanChangeInfo:         false,
			CanInviteUsers:        false,
			CanPinMessages:        false,
		},
	}
	if _, err := o.bot.Request(config); err != nil {
		return "", classify(err, "restrict user")
	}
	return displayName, nil
}

// Unrestrict lifts a mute by restoring default member permissions.
func (o *Operations) Unrestrict(ctx context.Context, chatID, userID int64) error {
	config := api.RestrictChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
			UserID: userID,
		},
		Permissions: &api.ChatPermissions{
			CanSendMessages:       true,
			CanSendPolls:          true,
			CanSendOtherMessages:  true,
			CanAddWebPagePreviews: true,
		},
	}
	if _, err := o.bot.Request(config); err != nil {
		return classify(err, "unrestrict user")
	}
	return nil
}

func (o *Operations) LookupDisplayName(ctx context.Context, chatID, userID int64) (string, error) {
	member, err := o.bot.GetChatMember(api.GetChatMemberConfig{
		ChatConfigWithUser: api.ChatConfigWithUser{
			ChatConfig: api.ChatConfig{
				ChatID: chatID,
			},
			UserID: userID,
		},
	})
	if err != nil {
		return "", classify(err, "get chat member")
	}
	user := member.User
	switch {
	case user == nil:
		return "", moderation.NewActuationError(moderation.CauseNotFound, fmt.Errorf("chat member %d has no user", userID))
	case user.UserName != "":
		return user.UserName, nil
	case user.FirstName != "":
		return user.FirstName, nil
	default:
		return fmt.Sprintf("User_%d", userID), nil
	}
}

// DeleteMessage removes a message from a chat.
func (o *Operations) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if _, err := o.bot.Request(api.NewDeleteMessage(chatID, messageID)); err != nil {
		return classify(err, "delete message")
	}
	return nil
}

// classify maps Telegram API error strings onto the actuation cause
// taxonomy. The Bot API reports conditions only through message text.
func classify(err error, operation string) error {
	wrapped := fmt.Errorf("failed to %s: %w", operation, err)
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not enough rights"),
		strings.Contains(msg, "CHAT_ADMIN_REQUIRED"),
		strings.Contains(msg, "can't restrict"):
		return moderation.NewActuationError(moderation.CausePermissionDenied, wrapped)
	case strings.Contains(msg, "PARTICIPANT_ID_INVALID"),
		strings.Contains(msg, "user not found"),
		strings.Contains(msg, "chat not found"):
		return moderation.NewActuationError(moderation.CauseNotFound, wrapped)
	default:
		return moderation.NewActuationError(moderation.CauseTransient, wrapped)
	}
}
