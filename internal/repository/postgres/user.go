package postgres

import (
	"context"
	"database/sql"
	"time"

	"modbot/internal/domain"
)

// UserRepo implements repository.UserRepository
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetByID returns the moderation state for a user within a chat.
// Returns (nil, nil) when there is no row for the pair.
func (r *UserRepo) GetByID(ctx context.Context, userID, chatID int64) (*domain.User, error) {
	var u domain.User
	var lastWarning sql.NullTime
	query := `
		SELECT user_id, chat_id, warnings_count, is_banned, can_send_messages, last_warning_time
		FROM users
		WHERE user_id = $1 AND chat_id = $2
	`
	err := r.db.QueryRowContext(ctx, query, userID, chatID).Scan(
		&u.UserID, &u.ChatID, &u.WarningsCount, &u.IsBanned, &u.CanSendMessages, &lastWarning,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if lastWarning.Valid {
		u.LastWarningTime = &lastWarning.Time
	}

	return &u, nil
}

// Save upserts the full moderation state for a user within a chat.
func (r *UserRepo) Save(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (user_id, chat_id, warnings_count, is_banned, can_send_messages, last_warning_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, chat_id) DO UPDATE SET
			warnings_count = EXCLUDED.warnings_count,
			is_banned = EXCLUDED.is_banned,
			can_send_messages = EXCLUDED.can_send_messages,
			last_warning_time = EXCLUDED.last_warning_time
	`

	var lastWarning sql.NullTime
	if user.LastWarningTime != nil {
		lastWarning = sql.NullTime{Time: *user.LastWarningTime, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		user.UserID, user.ChatID, user.WarningsCount, user.IsBanned, user.CanSendMessages, lastWarning,
	)
	return err
}

// UpdateWarnings sets the warning count for an existing user row and
// stamps the warning time. Rows are created by Save, not here.
func (r *UserRepo) UpdateWarnings(ctx context.Context, userID, chatID int64, count int) error {
	query := `
		UPDATE users
		SET warnings_count = $3, last_warning_time = $4
		WHERE user_id = $1 AND chat_id = $2
	`
	_, err := r.db.ExecContext(ctx, query, userID, chatID, count, time.Now().UTC())
	return err
}
