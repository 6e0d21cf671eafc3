package conversation

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the supported roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	default:
		return false
	}
}

// ParseRole converts a raw string into a Role.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
	return role, nil
}

var (
	ErrInvalidRole           = errors.New("invalid message role")
	ErrMissingOwner          = errors.New("conversation owner is required")
	ErrMissingConversationID = errors.New("conversation id is required")
)

// Conversation is a titled chat thread owned by a single user.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is a single append-only entry of a conversation transcript.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewConversation builds a conversation with a fresh id. Both timestamps are set to now.
func NewConversation(userID uuid.UUID, title string, now time.Time) (*Conversation, error) {
	if userID == uuid.Nil {
		return nil, ErrMissingOwner
	}
	now = now.UTC()
	return &Conversation{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewMessage builds a message with a fresh id after validating its role.
func NewMessage(conversationID uuid.UUID, role Role, content string, now time.Time) (*Message, error) {
	if conversationID == uuid.Nil {
		return nil, ErrMissingConversationID
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	return &Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      now.UTC(),
	}, nil
}
