package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewStorageError("save user", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "save user")
	assert.True(t, IsStorageError(err))
	assert.True(t, IsStorageError(fmt.Errorf("outer: %w", err)))
	assert.False(t, IsStorageError(cause))
}

func TestNewUser_Defaults(t *testing.T) {
	u := NewUser(123, 456)

	assert.Equal(t, 0, u.WarningsCount)
	assert.False(t, u.IsBanned)
	assert.True(t, u.CanSendMessages)
	assert.Nil(t, u.LastWarningTime)
}

func TestNewChatPolicy_Defaults(t *testing.T) {
	p := NewChatPolicy(456)

	assert.Equal(t, DefaultWarningsLimit, p.WarningsLimit)
	assert.Empty(t, p.ForbiddenWords)
}
