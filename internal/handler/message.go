package handler

import (
	"fmt"
	"strings"

	"modbot/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleText scans every group text message for forbidden words and
// applies the resulting state transition. The core decision is
// authoritative: a failed Telegram API call afterwards is logged and
// reported, never rolled back.
func (h *Handler) handleText(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Sender == nil {
		return nil
	}

	text := strings.TrimSpace(c.Text())
	if text == "" || strings.HasPrefix(text, "/") {
		return nil
	}

	ctx, cancel := handlerContext()
	defer cancel()

	record := &domain.Message{
		MessageID: int64(msg.ID),
		ChatID:    msg.Chat.ID,
		UserID:    msg.Sender.ID,
		Text:      text,
		Timestamp: msg.Time().UTC(),
	}

	violations, err := h.moderation.CheckMessage(ctx, record)
	if err != nil {
		h.logger.Error("Failed to process message",
			zap.Int64("chat_id", record.ChatID),
			zap.Int64("user_id", record.UserID),
			zap.Error(err),
		)
		return nil
	}
	if len(violations) == 0 {
		return nil
	}

	state := h.moderation.UserState(ctx, record.UserID, record.ChatID)

	if state.IsBanned {
		h.enforceBan(c, msg.Sender)
		return c.Send(fmt.Sprintf(
			"%s has been banned: warnings limit reached.",
			displayName(msg.Sender),
		))
	}

	limit := h.policies.WarningsLimit(ctx, record.ChatID)
	return c.Reply(fmt.Sprintf(
		"⚠️ Warning %d/%d for %s: forbidden words (%s).",
		state.WarningsCount, limit, displayName(msg.Sender), strings.Join(violations, ", "),
	))
}

// enforceBan applies the ban at the Telegram level after the state
// transition already succeeded.
func (h *Handler) enforceBan(c tele.Context, user *tele.User) {
	if err := c.Bot().Ban(c.Chat(), &tele.ChatMember{User: user}); err != nil {
		h.logger.Error("Failed to ban user on Telegram",
			zap.Int64("chat_id", c.Chat().ID),
			zap.Int64("user_id", user.ID),
			zap.Error(err),
		)
	}
}

// enforceRestriction mutes or unmutes the user at the Telegram level.
func (h *Handler) enforceRestriction(c tele.Context, user *tele.User, canSend bool) {
	member := &tele.ChatMember{
		User:   user,
		Rights: tele.Rights{CanSendMessages: canSend},
	}
	if err := c.Bot().Restrict(c.Chat(), member); err != nil {
		h.logger.Error("Failed to restrict user on Telegram",
			zap.Int64("chat_id", c.Chat().ID),
			zap.Int64("user_id", user.ID),
			zap.Bool("can_send", canSend),
			zap.Error(err),
		)
	}
}

func displayName(user *tele.User) string {
	if user.Username != "" {
		return "@" + user.Username
	}
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		return fmt.Sprintf("user %d", user.ID)
	}
	return name
}
