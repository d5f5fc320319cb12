package postgres

import (
	"context"
	"database/sql"

	"modbot/internal/domain"

	"github.com/lib/pq"
)

// PolicyRepo implements repository.PolicyRepository
type PolicyRepo struct {
	db *sql.DB
}

// NewPolicyRepo creates a new chat policy repository
func NewPolicyRepo(db *sql.DB) *PolicyRepo {
	return &PolicyRepo{db: db}
}

// GetByChatID returns the stored policy for a chat, or (nil, nil) when
// the chat has never been configured.
func (r *PolicyRepo) GetByChatID(ctx context.Context, chatID int64) (*domain.ChatPolicy, error) {
	var p domain.ChatPolicy
	query := `
		SELECT chat_id, warnings_limit, forbidden_words
		FROM chat_policies
		WHERE chat_id = $1
	`
	err := r.db.QueryRowContext(ctx, query, chatID).Scan(
		&p.ChatID, &p.WarningsLimit, pq.Array(&p.ForbiddenWords),
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// Upsert writes the full policy row for a chat.
func (r *PolicyRepo) Upsert(ctx context.Context, policy *domain.ChatPolicy) error {
	query := `
		INSERT INTO chat_policies (chat_id, warnings_limit, forbidden_words)
		VALUES ($1, $2, $3)
		ON CONFLICT (chat_id) DO UPDATE SET
			warnings_limit = EXCLUDED.warnings_limit,
			forbidden_words = EXCLUDED.forbidden_words
	`
	words := policy.ForbiddenWords
	if words == nil {
		words = []string{}
	}
	_, err := r.db.ExecContext(ctx, query, policy.ChatID, policy.WarningsLimit, pq.Array(words))
	return err
}
