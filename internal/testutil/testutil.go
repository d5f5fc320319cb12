package testutil

import (
	"time"

	"modbot/internal/domain"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestUser creates a user state for tests
func NewTestUser(userID, chatID int64, warnings int) *domain.User {
	return &domain.User{
		UserID:          userID,
		ChatID:          chatID,
		WarningsCount:   warnings,
		CanSendMessages: true,
	}
}

// NewTestMessage creates an unscanned inbound message for tests
func NewTestMessage(messageID, userID, chatID int64, text string) *domain.Message {
	return &domain.Message{
		MessageID: messageID,
		ChatID:    chatID,
		UserID:    userID,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
}

// NewTestPolicy creates a chat policy for tests
func NewTestPolicy(chatID int64, limit int, words ...string) *domain.ChatPolicy {
	return &domain.ChatPolicy{
		ChatID:         chatID,
		WarningsLimit:  limit,
		ForbiddenWords: words,
	}
}
