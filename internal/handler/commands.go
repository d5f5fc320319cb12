package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"modbot/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// targetUser resolves the user a moderation command applies to: the
// sender of the replied-to message.
func targetUser(c tele.Context) *tele.User {
	msg := c.Message()
	if msg == nil || msg.ReplyTo == nil || msg.ReplyTo.Sender == nil {
		return nil
	}
	return msg.ReplyTo.Sender
}

func (h *Handler) handleBan(c tele.Context) error {
	target := targetUser(c)
	if target == nil {
		return c.Send("Reply to a message of the user you want to ban.")
	}

	ctx, cancel := handlerContext()
	defer cancel()

	err := h.moderation.BanUser(ctx, target.ID, c.Chat().ID)
	switch {
	case errors.Is(err, domain.ErrUserAlreadyBanned):
		return c.Send(fmt.Sprintf("%s is already banned.", displayName(target)))
	case err != nil:
		h.logger.Error("Ban failed", zap.Int64("user_id", target.ID), zap.Error(err))
		return c.Send("Could not ban the user. Try again later.")
	}

	h.enforceBan(c, target)
	return c.Send(fmt.Sprintf("%s has been banned.", displayName(target)))
}

func (h *Handler) handleUnban(c tele.Context) error {
	target := targetUser(c)
	if target == nil {
		return c.Send("Reply to a message of the user you want to unban.")
	}

	ctx, cancel := handlerContext()
	defer cancel()

	err := h.moderation.UnbanUser(ctx, target.ID, c.Chat().ID)
	switch {
	case errors.Is(err, domain.ErrUserNotBanned):
		return c.Send(fmt.Sprintf("%s is not banned.", displayName(target)))
	case err != nil:
		h.logger.Error("Unban failed", zap.Int64("user_id", target.ID), zap.Error(err))
		return c.Send("Could not unban the user. Try again later.")
	}

	if err := c.Bot().Unban(c.Chat(), target); err != nil {
		h.logger.Error("Failed to unban user on Telegram",
			zap.Int64("chat_id", c.Chat().ID),
			zap.Int64("user_id", target.ID),
			zap.Error(err),
		)
	}
	return c.Send(fmt.Sprintf("%s has been unbanned, warnings reset.", displayName(target)))
}

func (h *Handler) handleMute(c tele.Context) error {
	target := targetUser(c)
	if target == nil {
		return c.Send("Reply to a message of the user you want to mute.")
	}

	ctx, cancel := handlerContext()
	defer cancel()

	err := h.moderation.MuteUser(ctx, target.ID, c.Chat().ID)
	switch {
	case errors.Is(err, domain.ErrUserAlreadyMuted):
		return c.Send(fmt.Sprintf("%s is already muted.", displayName(target)))
	case err != nil:
		h.logger.Error("Mute failed", zap.Int64("user_id", target.ID), zap.Error(err))
		return c.Send("Could not mute the user. Try again later.")
	}

	h.enforceRestriction(c, target, false)
	return c.Send(fmt.Sprintf("%s has been muted.", displayName(target)))
}

func (h *Handler) handleUnmute(c tele.Context) error {
	target := targetUser(c)
	if target == nil {
		return c.Send("Reply to a message of the user you want to unmute.")
	}

	ctx, cancel := handlerContext()
	defer cancel()

	err := h.moderation.UnmuteUser(ctx, target.ID, c.Chat().ID)
	switch {
	case errors.Is(err, domain.ErrUserNotMuted):
		return c.Send(fmt.Sprintf("%s is not muted.", displayName(target)))
	case err != nil:
		h.logger.Error("Unmute failed", zap.Int64("user_id", target.ID), zap.Error(err))
		return c.Send("Could not unmute the user. Try again later.")
	}

	h.enforceRestriction(c, target, true)
	return c.Send(fmt.Sprintf("%s has been unmuted.", displayName(target)))
}

func (h *Handler) handleKick(c tele.Context) error {
	target := targetUser(c)
	if target == nil {
		return c.Send("Reply to a message of the user you want to kick.")
	}

	ctx, cancel := handlerContext()
	defer cancel()

	if err := h.moderation.KickUser(ctx, target.ID, c.Chat().ID); err != nil {
		h.logger.Error("Kick failed", zap.Int64("user_id", target.ID), zap.Error(err))
		return c.Send("Could not kick the user. Try again later.")
	}

	// Telegram removal: ban then lift, so the user may re-join clean.
	member := &tele.ChatMember{User: target}
	if err := c.Bot().Ban(c.Chat(), member); err != nil {
		h.logger.Error("Failed to kick user on Telegram",
			zap.Int64("chat_id", c.Chat().ID),
			zap.Int64("user_id", target.ID),
			zap.Error(err),
		)
	} else if err := c.Bot().Unban(c.Chat(), target); err != nil {
		h.logger.Error("Failed to lift kick ban on Telegram",
			zap.Int64("chat_id", c.Chat().ID),
			zap.Int64("user_id", target.ID),
			zap.Error(err),
		)
	}
	return c.Send(fmt.Sprintf("%s has been kicked.", displayName(target)))
}

func (h *Handler) handleSetLimit(c tele.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Usage: /setlimit <number>")
	}

	limit, err := strconv.Atoi(args[0])
	if err != nil {
		return c.Send("The limit must be a number.")
	}

	ctx, cancel := handlerContext()
	defer cancel()

	err = h.policies.SetWarningsLimit(ctx, c.Chat().ID, limit)
	switch {
	case errors.Is(err, domain.ErrInvalidWarningsLimit):
		return c.Send("The warnings limit must be at least 1.")
	case err != nil:
		h.logger.Error("Set limit failed", zap.Int64("chat_id", c.Chat().ID), zap.Error(err))
		return c.Send("Could not save the limit. Try again later.")
	}

	return c.Send(fmt.Sprintf("Warnings limit set to %d.", limit))
}

func (h *Handler) handleAddWord(c tele.Context) error {
	word := strings.TrimSpace(c.Message().Payload)
	if word == "" {
		return c.Send("Usage: /addword <word>")
	}

	ctx, cancel := handlerContext()
	defer cancel()

	if err := h.policies.AddForbiddenWord(ctx, c.Chat().ID, word); err != nil {
		h.logger.Error("Add word failed", zap.Int64("chat_id", c.Chat().ID), zap.Error(err))
		return c.Send("Could not save the word. Try again later.")
	}

	return c.Send(fmt.Sprintf("Added %q to the forbidden words.", strings.ToLower(strings.TrimSpace(word))))
}

func (h *Handler) handleDelWord(c tele.Context) error {
	word := strings.TrimSpace(c.Message().Payload)
	if word == "" {
		return c.Send("Usage: /delword <word>")
	}

	ctx, cancel := handlerContext()
	defer cancel()

	removed, err := h.policies.RemoveForbiddenWord(ctx, c.Chat().ID, word)
	if err != nil {
		h.logger.Error("Remove word failed", zap.Int64("chat_id", c.Chat().ID), zap.Error(err))
		return c.Send("Could not remove the word. Try again later.")
	}
	if !removed {
		return c.Send("That word is not on the list.")
	}

	return c.Send(fmt.Sprintf("Removed %q from the forbidden words.", strings.ToLower(strings.TrimSpace(word))))
}

func (h *Handler) handleWords(c tele.Context) error {
	ctx, cancel := handlerContext()
	defer cancel()

	words := h.policies.ForbiddenWords(ctx, c.Chat().ID)
	if len(words) == 0 {
		return c.Send("No forbidden words configured for this chat.")
	}

	var b strings.Builder
	b.WriteString("Forbidden words:\n")
	for i, word := range words {
		fmt.Fprintf(&b, "%d. %s\n", i+1, word)
	}
	return c.Send(b.String())
}

func (h *Handler) handleClearWords(c tele.Context) error {
	ctx, cancel := handlerContext()
	defer cancel()

	if err := h.policies.ClearForbiddenWords(ctx, c.Chat().ID); err != nil {
		h.logger.Error("Clear words failed", zap.Int64("chat_id", c.Chat().ID), zap.Error(err))
		return c.Send("Could not clear the word list. Try again later.")
	}

	return c.Send("Forbidden word list cleared.")
}

func (h *Handler) handleStatus(c tele.Context) error {
	target := targetUser(c)
	if target == nil {
		return c.Send("Reply to a message of the user you want the status of.")
	}

	ctx, cancel := handlerContext()
	defer cancel()

	chatID := c.Chat().ID
	state := h.moderation.UserState(ctx, target.ID, chatID)
	limit := h.policies.WarningsLimit(ctx, chatID)

	violationCount := 0
	violations, err := h.moderation.UserViolations(ctx, target.ID, chatID)
	if err != nil {
		h.logger.Error("Failed to load violations",
			zap.Int64("user_id", target.ID),
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	} else {
		violationCount = len(violations)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Status of %s:\n", displayName(target))
	fmt.Fprintf(&b, "Warnings: %d/%d\n", state.WarningsCount, limit)
	fmt.Fprintf(&b, "Banned: %s\n", yesNo(state.IsBanned))
	fmt.Fprintf(&b, "Muted: %s\n", yesNo(!state.CanSendMessages && !state.IsBanned))
	fmt.Fprintf(&b, "Logged violations: %d\n", violationCount)
	if state.LastWarningTime != nil {
		fmt.Fprintf(&b, "Last warning: %s\n", state.LastWarningTime.Format("2006-01-02 15:04:05 UTC"))
	}
	return c.Send(b.String())
}

func (h *Handler) handleHelp(c tele.Context) error {
	return c.Send(`Moderation commands (admins only, reply to a user's message):
/ban - ban the user
/unban - lift a ban and reset warnings
/mute - forbid the user to send messages
/unmute - allow the user to send messages again
/kick - remove the user, clean slate on re-join
/status - show the user's warnings and restrictions

Policy commands (admins only):
/setlimit <n> - warnings before an automatic ban
/addword <word> - add a forbidden word
/delword <word> - remove a forbidden word
/words - list forbidden words
/clearwords - remove all forbidden words`)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
