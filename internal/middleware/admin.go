package middleware

import (
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// AdminOnly creates middleware that restricts a handler to chat
// administrators and the configured super-admin IDs. Moderation
// commands must never be runnable by regular members.
func AdminOnly(superAdmins []int64, logger *zap.Logger) tele.MiddlewareFunc {
	admins := make(map[int64]struct{}, len(superAdmins))
	for _, id := range superAdmins {
		admins[id] = struct{}{}
	}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}

			if _, ok := admins[sender.ID]; ok {
				return next(c)
			}

			member, err := c.Bot().ChatMemberOf(c.Chat(), sender)
			if err != nil {
				logger.Error("Failed to resolve chat member role",
					zap.Int64("chat_id", c.Chat().ID),
					zap.Int64("user_id", sender.ID),
					zap.Error(err),
				)
				return c.Send("Could not verify admin rights. Try again later.")
			}

			if member.Role != tele.Administrator && member.Role != tele.Creator {
				logger.Info("Non-admin tried a moderation command",
					zap.Int64("chat_id", c.Chat().ID),
					zap.Int64("user_id", sender.ID),
					zap.String("command", c.Text()),
				)
				return c.Send("Only chat administrators can use this command.")
			}

			return next(c)
		}
	}
}
