package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v3"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		user     *tele.User
		expected string
	}{
		{
			name:     "username preferred",
			user:     &tele.User{ID: 123, Username: "spammer", FirstName: "Sam"},
			expected: "@spammer",
		},
		{
			name:     "full name fallback",
			user:     &tele.User{ID: 123, FirstName: "Sam", LastName: "Smith"},
			expected: "Sam Smith",
		},
		{
			name:     "first name only",
			user:     &tele.User{ID: 123, FirstName: "Sam"},
			expected: "Sam",
		},
		{
			name:     "id fallback",
			user:     &tele.User{ID: 123},
			expected: "user 123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, displayName(tt.user))
		})
	}
}

func TestYesNo(t *testing.T) {
	assert.Equal(t, "yes", yesNo(true))
	assert.Equal(t, "no", yesNo(false))
}
