package domain

// DefaultWarningsLimit applies to chats that never configured a limit.
const DefaultWarningsLimit = 3

// ChatPolicy is the moderation configuration of a single chat:
// how many warnings a user gets before the automatic ban, and which
// words trigger a warning. ForbiddenWords keeps insertion order and
// holds normalized (trimmed, lowercased) unique entries.
type ChatPolicy struct {
	ChatID         int64
	WarningsLimit  int
	ForbiddenWords []string
}

// NewChatPolicy returns the default policy for a chat with no stored row.
func NewChatPolicy(chatID int64) *ChatPolicy {
	return &ChatPolicy{
		ChatID:        chatID,
		WarningsLimit: DefaultWarningsLimit,
	}
}
