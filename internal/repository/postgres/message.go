package postgres

import (
	"context"
	"database/sql"
	"time"

	"modbot/internal/domain"

	"github.com/lib/pq"
)

// MessageRepo implements repository.MessageRepository
type MessageRepo struct {
	db *sql.DB
}

// NewMessageRepo creates a new message repository
func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Save appends a message to the moderation log.
func (r *MessageRepo) Save(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO messages (message_id, chat_id, user_id, text, timestamp, contains_violations, violation_words)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		message.MessageID, message.ChatID, message.UserID, message.Text,
		message.Timestamp, message.ContainsViolations, pq.Array(message.ViolationWords),
	)
	return err
}

// GetUserViolations returns the user's violating messages in a chat,
// newest first.
func (r *MessageRepo) GetUserViolations(ctx context.Context, userID, chatID int64) ([]domain.Message, error) {
	query := `
		SELECT message_id, chat_id, user_id, text, timestamp, contains_violations, violation_words
		FROM messages
		WHERE user_id = $1 AND chat_id = $2 AND contains_violations = TRUE
		ORDER BY timestamp DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

// GetRecentMessages returns the latest logged messages for a chat.
func (r *MessageRepo) GetRecentMessages(ctx context.Context, chatID int64, limit int) ([]domain.Message, error) {
	query := `
		SELECT message_id, chat_id, user_id, text, timestamp, contains_violations, violation_words
		FROM messages
		WHERE chat_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

// DeleteOlderThan removes log entries older than age and reports how
// many rows were deleted.
func (r *MessageRepo) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	query := `
		DELETE FROM messages
		WHERE timestamp < $1
	`
	res, err := r.db.ExecContext(ctx, query, time.Now().UTC().Add(-age))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanMessages(rows *sql.Rows) ([]domain.Message, error) {
	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(
			&m.MessageID, &m.ChatID, &m.UserID, &m.Text,
			&m.Timestamp, &m.ContainsViolations, pq.Array(&m.ViolationWords),
		); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
