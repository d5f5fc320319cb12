package repository

import (
	"context"
	"time"

	"modbot/internal/domain"
)

// UserRepository defines moderation-state persistence for chat members.
// GetByID returns (nil, nil) for a user the bot has never acted on:
// absence is a valid default state, not an error.
type UserRepository interface {
	GetByID(ctx context.Context, userID, chatID int64) (*domain.User, error)
	Save(ctx context.Context, user *domain.User) error
	UpdateWarnings(ctx context.Context, userID, chatID int64, count int) error
}

// MessageRepository defines the moderation message log.
type MessageRepository interface {
	Save(ctx context.Context, message *domain.Message) error
	GetUserViolations(ctx context.Context, userID, chatID int64) ([]domain.Message, error)
	GetRecentMessages(ctx context.Context, chatID int64, limit int) ([]domain.Message, error)
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// PolicyRepository defines per-chat policy persistence.
// GetByChatID returns (nil, nil) for a chat with no stored policy.
type PolicyRepository interface {
	GetByChatID(ctx context.Context, chatID int64) (*domain.ChatPolicy, error)
	Upsert(ctx context.Context, policy *domain.ChatPolicy) error
}
