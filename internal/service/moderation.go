package service

import (
	"context"
	"strconv"
	"time"

	"modbot/internal/domain"
	"modbot/internal/metrics"
	"modbot/internal/repository"

	"go.uber.org/zap"
)

// ModerationService runs the warning escalation state machine. Per
// (user, chat) the states are Active -> Warned(n) -> Banned, with Muted
// orthogonal to the warning count. All read-modify-write cycles on one
// user's state are serialized per (user, chat).
type ModerationService struct {
	users    repository.UserRepository
	messages repository.MessageRepository
	policies *PolicyService
	logger   *zap.Logger

	locks *keyedMutex
}

// NewModerationService creates a new moderation service
func NewModerationService(
	users repository.UserRepository,
	messages repository.MessageRepository,
	policies *PolicyService,
	logger *zap.Logger,
) *ModerationService {
	return &ModerationService{
		users:    users,
		messages: messages,
		policies: policies,
		logger:   logger,
		locks:    newKeyedMutex(),
	}
}

// CheckMessage scans a message against its chat's forbidden words and
// returns the matched words. A clean message changes nothing and is not
// persisted. A violating message is logged with its matched words and
// earns the sender exactly one warning, regardless of how many words
// matched; the warning may escalate to an automatic ban.
func (s *ModerationService) CheckMessage(ctx context.Context, message *domain.Message) ([]string, error) {
	metrics.MessagesProcessed.WithLabelValues(formatChatID(message.ChatID)).Inc()

	violations := s.policies.CheckText(ctx, message.ChatID, message.Text)
	if len(violations) == 0 {
		return nil, nil
	}

	metrics.ViolationsDetected.WithLabelValues(formatChatID(message.ChatID)).Inc()
	s.logger.Info("Violations detected",
		zap.Int64("message_id", message.MessageID),
		zap.Int64("chat_id", message.ChatID),
		zap.Int64("user_id", message.UserID),
		zap.Strings("words", violations),
	)

	message.ContainsViolations = true
	message.ViolationWords = violations
	if err := s.messages.Save(ctx, message); err != nil {
		metrics.StorageErrors.WithLabelValues("write").Inc()
		return violations, domain.NewStorageError("save message", err)
	}

	defer s.locks.lock(userKey(message.UserID, message.ChatID)).Unlock()

	user, err := s.loadOrCreate(ctx, message.UserID, message.ChatID)
	if err != nil {
		return violations, err
	}
	if err := s.warnLocked(ctx, user); err != nil {
		return violations, err
	}

	return violations, nil
}

// WarnUser issues one warning to the user and bans them when the chat's
// current limit is reached.
func (s *ModerationService) WarnUser(ctx context.Context, userID, chatID int64) error {
	defer s.locks.lock(userKey(userID, chatID)).Unlock()

	user, err := s.loadOrCreate(ctx, userID, chatID)
	if err != nil {
		return err
	}
	return s.warnLocked(ctx, user)
}

// warnLocked increments the warning count and escalates to a ban when
// the count reaches the chat's limit. The limit is re-fetched here, at
// warn time, so a concurrent limit change applies from the next warning
// on. Callers must hold the user's lock.
func (s *ModerationService) warnLocked(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	user.WarningsCount++
	user.LastWarningTime = &now

	metrics.WarningsIssued.WithLabelValues(formatChatID(user.ChatID)).Inc()
	s.logger.Info("Warning issued",
		zap.Int64("user_id", user.UserID),
		zap.Int64("chat_id", user.ChatID),
		zap.Int("warnings_count", user.WarningsCount),
	)

	limit := s.policies.WarningsLimit(ctx, user.ChatID)
	if user.WarningsCount >= limit {
		s.logger.Warn("Warnings limit reached, banning user",
			zap.Int64("user_id", user.UserID),
			zap.Int64("chat_id", user.ChatID),
			zap.Int("limit", limit),
		)
		if err := s.banLocked(ctx, user); err != nil {
			return err
		}
	}

	return s.saveUser(ctx, "warn user", user)
}

// BanUser bans the user in the chat. Fails with ErrUserAlreadyBanned,
// without touching stored state, when the user is banned already.
func (s *ModerationService) BanUser(ctx context.Context, userID, chatID int64) error {
	defer s.locks.lock(userKey(userID, chatID)).Unlock()

	user, err := s.loadOrCreate(ctx, userID, chatID)
	if err != nil {
		return err
	}
	return s.banLocked(ctx, user)
}

func (s *ModerationService) banLocked(ctx context.Context, user *domain.User) error {
	if user.IsBanned {
		return domain.ErrUserAlreadyBanned
	}

	user.IsBanned = true
	user.CanSendMessages = false

	metrics.ModerationActions.WithLabelValues("ban", formatChatID(user.ChatID)).Inc()
	s.logger.Info("User banned",
		zap.Int64("user_id", user.UserID),
		zap.Int64("chat_id", user.ChatID),
	)
	return s.saveUser(ctx, "ban user", user)
}

// UnbanUser lifts a ban and forgives prior violations: the warning count
// resets to zero. Fails with ErrUserNotBanned when there is no ban.
func (s *ModerationService) UnbanUser(ctx context.Context, userID, chatID int64) error {
	defer s.locks.lock(userKey(userID, chatID)).Unlock()

	user, err := s.loadOrCreate(ctx, userID, chatID)
	if err != nil {
		return err
	}
	if !user.IsBanned {
		return domain.ErrUserNotBanned
	}

	user.IsBanned = false
	user.CanSendMessages = true
	user.WarningsCount = 0

	metrics.ModerationActions.WithLabelValues("unban", formatChatID(chatID)).Inc()
	s.logger.Info("User unbanned",
		zap.Int64("user_id", userID),
		zap.Int64("chat_id", chatID),
	)
	return s.saveUser(ctx, "unban user", user)
}

// MuteUser restricts the user from sending messages. Independent of ban
// status and warning count. Fails with ErrUserAlreadyMuted when the user
// cannot send messages already.
func (s *ModerationService) MuteUser(ctx context.Context, userID, chatID int64) error {
	defer s.locks.lock(userKey(userID, chatID)).Unlock()

	user, err := s.loadOrCreate(ctx, userID, chatID)
	if err != nil {
		return err
	}
	if !user.CanSendMessages {
		return domain.ErrUserAlreadyMuted
	}

	user.CanSendMessages = false

	metrics.ModerationActions.WithLabelValues("mute", formatChatID(chatID)).Inc()
	s.logger.Info("User muted",
		zap.Int64("user_id", userID),
		zap.Int64("chat_id", chatID),
	)
	return s.saveUser(ctx, "mute user", user)
}

// UnmuteUser lets the user send messages again. Fails with
// ErrUserNotMuted when the user is not muted. Does not touch the
// warning count: only unban and kick forgive.
func (s *ModerationService) UnmuteUser(ctx context.Context, userID, chatID int64) error {
	defer s.locks.lock(userKey(userID, chatID)).Unlock()

	user, err := s.loadOrCreate(ctx, userID, chatID)
	if err != nil {
		return err
	}
	if user.CanSendMessages {
		return domain.ErrUserNotMuted
	}

	user.CanSendMessages = true

	metrics.ModerationActions.WithLabelValues("unmute", formatChatID(chatID)).Inc()
	s.logger.Info("User unmuted",
		zap.Int64("user_id", userID),
		zap.Int64("chat_id", chatID),
	)
	return s.saveUser(ctx, "unmute user", user)
}

// KickUser resets the user to a clean slate: the platform removal is the
// adapter's job, the local record just starts over for a possible
// re-join. Never fails on state.
func (s *ModerationService) KickUser(ctx context.Context, userID, chatID int64) error {
	defer s.locks.lock(userKey(userID, chatID)).Unlock()

	user, err := s.loadOrCreate(ctx, userID, chatID)
	if err != nil {
		return err
	}
	user.WarningsCount = 0
	user.IsBanned = false
	user.CanSendMessages = true

	metrics.ModerationActions.WithLabelValues("kick", formatChatID(chatID)).Inc()
	s.logger.Info("User kicked",
		zap.Int64("user_id", userID),
		zap.Int64("chat_id", chatID),
	)
	return s.saveUser(ctx, "kick user", user)
}

// UserState returns the user's current moderation state, a clean default
// when the bot has never acted on them. Read-only, so a store failure
// degrades to the clean default instead of failing the status lookup.
func (s *ModerationService) UserState(ctx context.Context, userID, chatID int64) *domain.User {
	user, err := s.loadOrCreate(ctx, userID, chatID)
	if err != nil {
		return domain.NewUser(userID, chatID)
	}
	return user
}

// UserViolations returns the user's violating messages, newest first.
func (s *ModerationService) UserViolations(ctx context.Context, userID, chatID int64) ([]domain.Message, error) {
	return s.messages.GetUserViolations(ctx, userID, chatID)
}

// RecentMessages returns the chat's latest logged messages.
func (s *ModerationService) RecentMessages(ctx context.Context, chatID int64, limit int) ([]domain.Message, error) {
	return s.messages.GetRecentMessages(ctx, chatID, limit)
}

// loadOrCreate fetches the user's state, returning a clean record for
// unseen users. A store read failure surfaces as a StorageError: a
// transition applied to a record the service could not read would
// overwrite the stored warning count and ban flag.
func (s *ModerationService) loadOrCreate(ctx context.Context, userID, chatID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID, chatID)
	if err != nil {
		metrics.StorageErrors.WithLabelValues("read").Inc()
		s.logger.Error("Failed to load user state",
			zap.Int64("user_id", userID),
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		return nil, domain.NewStorageError("load user state", err)
	}
	if user == nil {
		return domain.NewUser(userID, chatID), nil
	}
	return user, nil
}

func (s *ModerationService) saveUser(ctx context.Context, op string, user *domain.User) error {
	if err := s.users.Save(ctx, user); err != nil {
		metrics.StorageErrors.WithLabelValues("write").Inc()
		return domain.NewStorageError(op, err)
	}
	return nil
}

func formatChatID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
