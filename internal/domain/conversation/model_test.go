package conversation

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_Valid(t *testing.T) {
	tests := []struct {
		role     Role
		expected bool
	}{
		{RoleUser, true},
		{RoleAssistant, true},
		{RoleSystem, true},
		{Role("tool"), false},
		{Role(""), false},
		{Role("USER"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.role.Valid())
		})
	}
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("assistant")
	require.NoError(t, err)
	assert.Equal(t, RoleAssistant, role)

	_, err = ParseRole("moderator")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRole))
}

func TestNewConversation(t *testing.T) {
	owner := uuid.New()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))

	conv, err := NewConversation(owner, "Trip planning", now)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, conv.ID)
	assert.Equal(t, owner, conv.UserID)
	assert.Equal(t, "Trip planning", conv.Title)
	assert.Equal(t, conv.CreatedAt, conv.UpdatedAt)
	assert.Equal(t, time.UTC, conv.CreatedAt.Location())
	assert.True(t, conv.CreatedAt.Equal(now))
}

func TestNewConversation_RequiresOwner(t *testing.T) {
	_, err := NewConversation(uuid.Nil, "x", time.Now())
	assert.ErrorIs(t, err, ErrMissingOwner)
}

func TestNewConversation_FreshIDs(t *testing.T) {
	owner := uuid.New()
	a, err := NewConversation(owner, "a", time.Now())
	require.NoError(t, err)
	b, err := NewConversation(owner, "b", time.Now())
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestNewMessage(t *testing.T) {
	convID := uuid.New()

	msg, err := NewMessage(convID, RoleUser, "  Where should I go in March?  ", time.Now())
	require.NoError(t, err)
	assert.Equal(t, convID, msg.ConversationID)
	assert.Equal(t, RoleUser, msg.Role)
	assert.Equal(t, "  Where should I go in March?  ", msg.Content)
	assert.NotEqual(t, uuid.Nil, msg.ID)
}

func TestNewMessage_RejectsInvalidRole(t *testing.T) {
	_, err := NewMessage(uuid.New(), Role("tool"), "hi", time.Now())
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = NewMessage(uuid.Nil, RoleUser, "hi", time.Now())
	assert.ErrorIs(t, err, ErrMissingConversationID)
}

func TestNormalizePages(t *testing.T) {
	limit, offset := NormalizeConversationPage(0, -5)
	assert.Equal(t, DefaultListLimit, limit)
	assert.Equal(t, 0, offset)

	limit, offset = NormalizeConversationPage(10, 20)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 20, offset)

	limit, offset = NormalizeMessagePage(-1, -1)
	assert.Equal(t, 0, limit)
	assert.Equal(t, 0, offset)
}
