package service

import (
	"context"
	"fmt"
	"testing"

	"modbot/internal/domain"
	"modbot/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type moderationFixture struct {
	users    *testutil.MockUserRepository
	messages *testutil.MockMessageRepository
	policies *testutil.MockPolicyRepository
	svc      *ModerationService
}

func newModerationFixture() *moderationFixture {
	f := &moderationFixture{
		users:    new(testutil.MockUserRepository),
		messages: new(testutil.MockMessageRepository),
		policies: new(testutil.MockPolicyRepository),
	}
	logger := testutil.NewTestLogger()
	f.svc = NewModerationService(f.users, f.messages, NewPolicyService(f.policies, logger), logger)
	return f
}

func TestModerationService_CheckMessage_CleanMessage(t *testing.T) {
	f := newModerationFixture()
	f.policies.On("GetByChatID", mock.Anything, int64(456)).
		Return(testutil.NewTestPolicy(456, 3, "bad"), nil)

	violations, err := f.svc.CheckMessage(context.Background(), testutil.NewTestMessage(1001, 123, 456, "hello there"))

	assert.NoError(t, err)
	assert.Empty(t, violations)
	f.messages.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.users.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestModerationService_CheckMessage_Violation(t *testing.T) {
	f := newModerationFixture()
	f.policies.On("GetByChatID", mock.Anything, int64(456)).
		Return(testutil.NewTestPolicy(456, 3, "bad", "spam"), nil)
	f.messages.On("Save", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
		return m.ContainsViolations && len(m.ViolationWords) == 2
	})).Return(nil)
	f.users.On("GetByID", mock.Anything, int64(123), int64(456)).Return(nil, nil)

	var saved *domain.User
	f.users.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*domain.User)
	}).Return(nil)

	violations, err := f.svc.CheckMessage(context.Background(), testutil.NewTestMessage(1001, 123, 456, "bad spam here"))

	assert.NoError(t, err)
	assert.Equal(t, []string{"bad", "spam"}, violations)

	// One warning per violating message, no matter how many words matched.
	assert.NotNil(t, saved)
	assert.Equal(t, 1, saved.WarningsCount)
	assert.NotNil(t, saved.LastWarningTime)
	assert.False(t, saved.IsBanned)
	f.messages.AssertExpectations(t)
}

func TestModerationService_CheckMessage_MessageSaveFailure(t *testing.T) {
	f := newModerationFixture()
	f.policies.On("GetByChatID", mock.Anything, int64(456)).
		Return(testutil.NewTestPolicy(456, 3, "bad"), nil)
	f.messages.On("Save", mock.Anything, mock.Anything).Return(fmt.Errorf("db down"))

	violations, err := f.svc.CheckMessage(context.Background(), testutil.NewTestMessage(1001, 123, 456, "bad"))

	assert.Error(t, err)
	assert.True(t, domain.IsStorageError(err))
	assert.Equal(t, []string{"bad"}, violations)
	f.users.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestModerationService_Escalation_ThreeStrikes(t *testing.T) {
	f := newModerationFixture()
	f.policies.On("GetByChatID", mock.Anything, int64(456)).
		Return(testutil.NewTestPolicy(456, 3, "bad"), nil)
	f.messages.On("Save", mock.Anything, mock.Anything).Return(nil)

	var saved *domain.User
	f.users.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*domain.User)
	}).Return(nil)

	// Each check re-reads the user's stored state from the previous round.
	f.users.On("GetByID", mock.Anything, int64(123), int64(456)).Return(nil, nil).Once()
	f.users.On("GetByID", mock.Anything, int64(123), int64(456)).
		Return(testutil.NewTestUser(123, 456, 1), nil).Once()
	f.users.On("GetByID", mock.Anything, int64(123), int64(456)).
		Return(testutil.NewTestUser(123, 456, 2), nil).Once()

	ctx := context.Background()

	_, err := f.svc.CheckMessage(ctx, testutil.NewTestMessage(1001, 123, 456, "this is bad"))
	assert.NoError(t, err)
	assert.Equal(t, 1, saved.WarningsCount)
	assert.False(t, saved.IsBanned)

	_, err = f.svc.CheckMessage(ctx, testutil.NewTestMessage(1002, 123, 456, "this is bad"))
	assert.NoError(t, err)
	assert.Equal(t, 2, saved.WarningsCount)
	assert.False(t, saved.IsBanned)

	_, err = f.svc.CheckMessage(ctx, testutil.NewTestMessage(1003, 123, 456, "this is bad"))
	assert.NoError(t, err)
	assert.Equal(t, 3, saved.WarningsCount)
	assert.True(t, saved.IsBanned)
	assert.False(t, saved.CanSendMessages)
}

func TestModerationService_WarnUser_BansAtExactLimit(t *testing.T) {
	f := newModerationFixture()
	f.policies.On("GetByChatID", mock.Anything, int64(456)).
		Return(testutil.NewTestPolicy(456, 3), nil)
	f.users.On("GetByID", mock.Anything, int64(123), int64(456)).
		Return(testutil.NewTestUser(123, 456, 2), nil)

	var saved *domain.User
	f.users.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*domain.User)
	}).Return(nil)

	err := f.svc.WarnUser(context.Background(), 123, 456)

	assert.NoError(t, err)
	assert.Equal(t, 3, saved.WarningsCount)
	assert.True(t, saved.IsBanned)
	assert.False(t, saved.CanSendMessages)
}

func TestModerationService_WarnUser_BelowLimit(t *testing.T) {
	f := newModerationFixture()
	f.policies.On("GetByChatID", mock.Anything, int64(456)).
		Return(testutil.NewTestPolicy(456, 3), nil)
	f.users.On("GetByID", mock.Anything, int64(123), int64(456)).
		Return(testutil.NewTestUser(123, 456, 1), nil)

	var saved *domain.User
	f.users.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*domain.User)
	}).Return(nil)

	err := f.svc.WarnUser(context.Background(), 123, 456)

	assert.NoError(t, err)
	assert.Equal(t, 2, saved.WarningsCount)
	assert.False(t, saved.IsBanned)
}

func TestModerationService_BanUser_AlreadyBanned(t *testing.T) {
	f := newModerationFixture()
	banned := &domain.User{UserID: 123, ChatID: 456, IsBanned: true, CanSendMessages: false}
	f.users.On("GetByID", mock.Anything, int64(123), int64(456)).Return(banned, nil)

	err := f.svc.BanUser(context.Background(), 123, 456)

	assert.ErrorIs(t, err, domain.ErrUserAlreadyBanned)
	f.users.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestModerationService_UnbanUser_ResetsWarnings(t *testing.T) {
	f := newModerationFixture()
	banned := &domain.User{UserID: 123, ChatID: 456, WarningsCount: 5, IsBanned: true, CanSendMessages: false}
	f.users.On("GetByID", mock.Anything, int64(123), int64(456)).Return(banned, nil)

	var saved *domain.User
	f.users.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*domain.User)
	}).Return(nil)

	err := f.svc.UnbanUser(context.Background(), 123, 456)

	assert.NoError(t, err)
	assert.False(t, saved.IsBanned)
	assert.True(t, saved.CanSendMessages)
	assert.Equal(t, 0, saved.WarningsCount)
}

func TestModerationService_UnbanUser_NotBanned(t *testing.T) {
	f := newModerationFixture()
	f.users.On("GetByID", mock.Anything, int64(123), int64(456)).
		Return(testutil.NewTestUser(123, 456, 0), nil)

	err := f.svc.UnbanUser(context.Background(), 123, 456)

	assert.ErrorIs(t, err, domain.ErrUserNotBanned)
	f.users.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestModerationService_MuteUnmute(t *testing.T) {
	t.Run("mute active user", func(t *testing.T) {
		f := newModerationFixture()
		f.users.On("GetByID", mock.Anything, int64(123), int64(456)).
			Return(testutil.NewTestUser(123, 456, 2), nil)

		var saved *domain.User
		f.users.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			saved = args.Get(1).(*domain.User)
		}).Return(nil)

		assert.NoError(t, f.svc.MuteUser(context.Background(), 123, 456))
		assert.False(t, saved.CanSendMessages)
		assert.False(t, saved.IsBanned)
		// Mute does not forgive warnings.
		assert.Equal(t, 2, saved.WarningsCount)
	})

	t.Run("mute muted user", func(t *testing.T) {
		f := newModerationFixture()
		muted := &domain.User{UserID: 123, ChatID: 456, CanSendMessages: false}
		f.users.On("GetByID", mock.Anything, int64(123), int64(456)).Return(muted, nil)

		err := f.svc.MuteUser(context.Background(), 123, 456)

		assert.ErrorIs(t, err, domain.ErrUserAlreadyMuted)
		f.users.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("unmute muted user keeps warnings", func(t *testing.T) {
		f := newModerationFixture()
		muted := &domain.User{UserID: 123, ChatID: 456, WarningsCount: 2, CanSendMessages: false}
		f.users.On("GetByID", mock.Anything, int64(123), int64(456)).Return(muted, nil)

		var saved *domain.User
		f.users.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			saved = args.Get(1).(*domain.User)
		}).Return(nil)

		assert.NoError(t, f.svc.UnmuteUser(context.Background(), 123, 456))
		assert.True(t, saved.CanSendMessages)
		assert.Equal(t, 2, saved.WarningsCount)
	})

	t.Run("unmute active user", func(t *testing.T) {
		f := newModerationFixture()
		f.users.On("GetByID", mock.Anything, int64(123), int64(456)).
			Return(testutil.NewTestUser(123, 456, 0), nil)

		err := f.svc.UnmuteUser(context.Background(), 123, 456)

		assert.ErrorIs(t, err, domain.ErrUserNotMuted)
	})
}

func TestModerationService_KickUser_AlwaysResets(t *testing.T) {
	f := newModerationFixture()
	banned := &domain.User{UserID: 123, ChatID: 456, WarningsCount: 4, IsBanned: true, CanSendMessages: false}
	f.users.On("GetByID", mock.Anything, int64(123), int64(456)).Return(banned, nil)

	var saved *domain.User
	f.users.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*domain.User)
	}).Return(nil)

	err := f.svc.KickUser(context.Background(), 123, 456)

	assert.NoError(t, err)
	assert.Equal(t, 0, saved.WarningsCount)
	assert.False(t, saved.IsBanned)
	assert.True(t, saved.CanSendMessages)
}

func TestModerationService_UserState_UnseenUserIsClean(t *testing.T) {
	f := newModerationFixture()
	f.users.On("GetByID", mock.Anything, int64(123), int64(456)).Return(nil, nil)

	state := f.svc.UserState(context.Background(), 123, 456)

	assert.Equal(t, 0, state.WarningsCount)
	assert.False(t, state.IsBanned)
	assert.True(t, state.CanSendMessages)
}

func TestModerationService_UserState_LoadFailureDegradesToClean(t *testing.T) {
	f := newModerationFixture()
	f.users.On("GetByID", mock.Anything, int64(123), int64(456)).
		Return(nil, fmt.Errorf("db down"))

	state := f.svc.UserState(context.Background(), 123, 456)

	assert.NotNil(t, state)
	assert.True(t, state.CanSendMessages)
}

// A transition applied over a state the service could not read would
// overwrite the stored record, so every mutating call must fail on a
// user read error without saving anything.
func TestModerationService_Transitions_LoadFailureBlocksSave(t *testing.T) {
	tests := []struct {
		name string
		call func(svc *ModerationService) error
	}{
		{"warn", func(svc *ModerationService) error { return svc.WarnUser(context.Background(), 123, 456) }},
		{"ban", func(svc *ModerationService) error { return svc.BanUser(context.Background(), 123, 456) }},
		{"unban", func(svc *ModerationService) error { return svc.UnbanUser(context.Background(), 123, 456) }},
		{"mute", func(svc *ModerationService) error { return svc.MuteUser(context.Background(), 123, 456) }},
		{"unmute", func(svc *ModerationService) error { return svc.UnmuteUser(context.Background(), 123, 456) }},
		{"kick", func(svc *ModerationService) error { return svc.KickUser(context.Background(), 123, 456) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newModerationFixture()
			f.users.On("GetByID", mock.Anything, int64(123), int64(456)).
				Return(nil, fmt.Errorf("db down"))

			err := tt.call(f.svc)

			assert.Error(t, err)
			assert.True(t, domain.IsStorageError(err))
			f.users.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

// A warning must never be counted against a record the service could
// not read: a repeat offender's stored count would be replaced with 1,
// dodging the ban threshold.
func TestModerationService_CheckMessage_UserLoadFailure(t *testing.T) {
	f := newModerationFixture()
	f.policies.On("GetByChatID", mock.Anything, int64(456)).
		Return(testutil.NewTestPolicy(456, 3, "bad"), nil)
	f.messages.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.users.On("GetByID", mock.Anything, int64(123), int64(456)).
		Return(nil, fmt.Errorf("db down"))

	violations, err := f.svc.CheckMessage(context.Background(), testutil.NewTestMessage(1001, 123, 456, "bad"))

	assert.Error(t, err)
	assert.True(t, domain.IsStorageError(err))
	assert.Equal(t, []string{"bad"}, violations)
	f.users.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// BanUser must report ErrUserAlreadyBanned from the stored record, not
// re-ban over a record it could not read.
func TestModerationService_BanUser_LoadFailureKeepsIdempotency(t *testing.T) {
	f := newModerationFixture()
	f.users.On("GetByID", mock.Anything, int64(123), int64(456)).
		Return(nil, fmt.Errorf("db down"))

	err := f.svc.BanUser(context.Background(), 123, 456)

	assert.True(t, domain.IsStorageError(err))
	assert.NotErrorIs(t, err, domain.ErrUserAlreadyBanned)
	f.users.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}
