package conversation

import (
	"context"

	"github.com/google/uuid"
)

// DefaultListLimit is applied when callers do not bound a page.
const DefaultListLimit = 100

// ConversationRepository persists conversations. FindByID returns (nil, nil)
// when no row matches; every other failure is returned as an error.
type ConversationRepository interface {
	Create(ctx context.Context, conversation *Conversation) (*Conversation, error)
	FindByID(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*Conversation, error)
	// List returns the owner's conversations newest first.
	List(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Conversation, error)
	Update(ctx context.Context, conversation *Conversation) (*Conversation, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// MessageRepository persists messages. FindByID returns (nil, nil) when absent.
type MessageRepository interface {
	Create(ctx context.Context, message *Message) (*Message, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Message, error)
	// ListByConversation returns messages oldest first. A limit of 0 returns every message.
	ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*Message, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// NormalizeConversationPage applies the conversation listing defaults.
func NormalizeConversationPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// NormalizeMessagePage clamps the message listing window. Zero limit means unbounded.
func NormalizeMessagePage(limit, offset int) (int, int) {
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
