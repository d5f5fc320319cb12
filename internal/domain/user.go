package domain

import "time"

// User is the per-chat moderation state of a chat member.
// Identity is the (UserID, ChatID) pair: the same person carries
// independent warning counts in every chat the bot moderates.
type User struct {
	UserID          int64
	ChatID          int64
	WarningsCount   int
	IsBanned        bool
	CanSendMessages bool
	LastWarningTime *time.Time
}

// NewUser returns a clean state for a user the bot has not acted on yet.
func NewUser(userID, chatID int64) *User {
	return &User{
		UserID:          userID,
		ChatID:          chatID,
		CanSendMessages: true,
	}
}
