package domain

import "time"

// Message is a moderation log entry for one inbound chat message.
// It is written at most once, after scanning, and never updated.
type Message struct {
	MessageID          int64
	ChatID             int64
	UserID             int64
	Text               string
	Timestamp          time.Time
	ContainsViolations bool
	ViolationWords     []string
}
