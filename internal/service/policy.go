package service

import (
	"context"
	"strings"
	"sync"

	"modbot/internal/domain"
	"modbot/internal/matcher"
	"modbot/internal/metrics"
	"modbot/internal/repository"

	"go.uber.org/zap"
)

// PolicyService manages per-chat moderation policy (warnings limit and
// forbidden words) with a read-through cache over the durable store.
//
// Read and write paths are deliberately asymmetric: a store failure on a
// read degrades to defaults so message processing never stalls, while a
// store failure on a write surfaces as a StorageError and leaves the
// cache untouched (writes go store-first, cache-second).
type PolicyService struct {
	repo     repository.PolicyRepository
	matchers *matcher.Cache
	logger   *zap.Logger

	cacheMux sync.RWMutex
	cache    map[int64]*domain.ChatPolicy

	locks *keyedMutex
}

// NewPolicyService creates a new policy service
func NewPolicyService(repo repository.PolicyRepository, logger *zap.Logger) *PolicyService {
	return &PolicyService{
		repo:     repo,
		matchers: matcher.NewCache(),
		logger:   logger,
		cache:    make(map[int64]*domain.ChatPolicy),
		locks:    newKeyedMutex(),
	}
}

// WarningsLimit returns the chat's configured limit, or the default when
// the chat has no policy or the store is unreachable. Never fails.
func (s *PolicyService) WarningsLimit(ctx context.Context, chatID int64) int {
	policy := s.policyOrDefault(ctx, chatID)
	if policy == nil {
		return domain.DefaultWarningsLimit
	}
	return policy.WarningsLimit
}

// SetWarningsLimit persists a new warnings limit for the chat.
// Limits below 1 are rejected with ErrInvalidWarningsLimit.
func (s *PolicyService) SetWarningsLimit(ctx context.Context, chatID int64, limit int) error {
	if limit < 1 {
		return domain.ErrInvalidWarningsLimit
	}

	defer s.locks.lock(chatKey(chatID)).Unlock()

	updated, err := s.snapshotPolicy(ctx, chatID)
	if err != nil {
		return err
	}
	updated.WarningsLimit = limit

	if err := s.persist(ctx, "set warnings limit", updated); err != nil {
		return err
	}

	s.logger.Info("Warnings limit updated",
		zap.Int64("chat_id", chatID),
		zap.Int("limit", limit),
	)
	return nil
}

// AddForbiddenWord adds a normalized word to the chat's list. Words that
// normalize to the empty string and words already present are no-ops.
func (s *PolicyService) AddForbiddenWord(ctx context.Context, chatID int64, word string) error {
	word = NormalizeWord(word)
	if word == "" {
		return nil
	}

	defer s.locks.lock(chatKey(chatID)).Unlock()

	updated, err := s.snapshotPolicy(ctx, chatID)
	if err != nil {
		return err
	}
	for _, existing := range updated.ForbiddenWords {
		if existing == word {
			return nil
		}
	}
	updated.ForbiddenWords = append(updated.ForbiddenWords, word)

	if err := s.persist(ctx, "add forbidden word", updated); err != nil {
		return err
	}
	s.matchers.Invalidate(chatID)

	s.logger.Info("Forbidden word added",
		zap.Int64("chat_id", chatID),
		zap.String("word", word),
	)
	return nil
}

// RemoveForbiddenWord removes a normalized word from the chat's list and
// reports whether a removal happened.
func (s *PolicyService) RemoveForbiddenWord(ctx context.Context, chatID int64, word string) (bool, error) {
	word = NormalizeWord(word)
	if word == "" {
		return false, nil
	}

	defer s.locks.lock(chatKey(chatID)).Unlock()

	updated, err := s.snapshotPolicy(ctx, chatID)
	if err != nil {
		return false, err
	}
	index := -1
	for i, existing := range updated.ForbiddenWords {
		if existing == word {
			index = i
			break
		}
	}
	if index < 0 {
		return false, nil
	}
	updated.ForbiddenWords = append(updated.ForbiddenWords[:index], updated.ForbiddenWords[index+1:]...)

	if err := s.persist(ctx, "remove forbidden word", updated); err != nil {
		return false, err
	}
	s.matchers.Invalidate(chatID)

	s.logger.Info("Forbidden word removed",
		zap.Int64("chat_id", chatID),
		zap.String("word", word),
	)
	return true, nil
}

// ForbiddenWords returns the chat's word list in insertion order.
// Empty (never an error) when the chat has no policy.
func (s *PolicyService) ForbiddenWords(ctx context.Context, chatID int64) []string {
	policy := s.policyOrDefault(ctx, chatID)
	if policy == nil || len(policy.ForbiddenWords) == 0 {
		return nil
	}
	words := make([]string, len(policy.ForbiddenWords))
	copy(words, policy.ForbiddenWords)
	return words
}

// ClearForbiddenWords empties the chat's word list.
func (s *PolicyService) ClearForbiddenWords(ctx context.Context, chatID int64) error {
	defer s.locks.lock(chatKey(chatID)).Unlock()

	updated, err := s.snapshotPolicy(ctx, chatID)
	if err != nil {
		return err
	}
	updated.ForbiddenWords = nil

	if err := s.persist(ctx, "clear forbidden words", updated); err != nil {
		return err
	}
	s.matchers.Invalidate(chatID)

	s.logger.Warn("All forbidden words cleared", zap.Int64("chat_id", chatID))
	return nil
}

// CheckText returns the forbidden words present in text for this chat,
// in word-list order, using the chat's cached compiled matcher.
func (s *PolicyService) CheckText(ctx context.Context, chatID int64, text string) []string {
	if text == "" {
		return nil
	}

	words := s.ForbiddenWords(ctx, chatID)
	if len(words) == 0 {
		return nil
	}

	return s.matchers.Get(chatID, words).FindAll(text)
}

// NormalizeWord trims and lowercases a forbidden word the same way the
// matcher and the stored word lists expect it.
func NormalizeWord(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// getPolicy serves the policy from cache, falling back to the store.
// (nil, nil) means the chat has no policy yet. Store failures surface:
// the caller decides whether its path may degrade to defaults.
func (s *PolicyService) getPolicy(ctx context.Context, chatID int64) (*domain.ChatPolicy, error) {
	s.cacheMux.RLock()
	policy, ok := s.cache[chatID]
	s.cacheMux.RUnlock()
	if ok {
		return policy, nil
	}

	policy, err := s.repo.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, nil
	}

	s.cacheMux.Lock()
	s.cache[chatID] = policy
	s.cacheMux.Unlock()
	return policy, nil
}

// policyOrDefault is the read-path variant of getPolicy: a store
// failure is logged and reported as "no policy" so reads degrade to
// defaults and message processing never stalls.
func (s *PolicyService) policyOrDefault(ctx context.Context, chatID int64) *domain.ChatPolicy {
	policy, err := s.getPolicy(ctx, chatID)
	if err != nil {
		metrics.StorageErrors.WithLabelValues("read").Inc()
		s.logger.Error("Failed to load chat policy, using defaults",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		return nil
	}
	return policy
}

// snapshotPolicy returns a private copy of the chat's current policy
// (or a fresh default one) that the caller may mutate before
// persisting. A store read failure surfaces as a StorageError here:
// a mutation must never overwrite stored state it could not read.
func (s *PolicyService) snapshotPolicy(ctx context.Context, chatID int64) (*domain.ChatPolicy, error) {
	current, err := s.getPolicy(ctx, chatID)
	if err != nil {
		metrics.StorageErrors.WithLabelValues("read").Inc()
		s.logger.Error("Failed to load chat policy for update",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		return nil, domain.NewStorageError("load chat policy", err)
	}
	if current == nil {
		return domain.NewChatPolicy(chatID), nil
	}

	words := make([]string, len(current.ForbiddenWords))
	copy(words, current.ForbiddenWords)
	return &domain.ChatPolicy{
		ChatID:         current.ChatID,
		WarningsLimit:  current.WarningsLimit,
		ForbiddenWords: words,
	}, nil
}

// persist writes the policy to the store and only then replaces the
// cache entry, so a failed write cannot leave a stale-but-confident
// cache behind.
func (s *PolicyService) persist(ctx context.Context, op string, policy *domain.ChatPolicy) error {
	if err := s.repo.Upsert(ctx, policy); err != nil {
		metrics.StorageErrors.WithLabelValues("write").Inc()
		s.logger.Error("Failed to persist chat policy",
			zap.Int64("chat_id", policy.ChatID),
			zap.String("op", op),
			zap.Error(err),
		)
		return domain.NewStorageError(op, err)
	}

	s.cacheMux.Lock()
	s.cache[policy.ChatID] = policy
	s.cacheMux.Unlock()
	return nil
}
