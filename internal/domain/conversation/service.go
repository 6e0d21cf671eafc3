package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"jan-server/services/chatbot-api/internal/infrastructure/metrics"
	"jan-server/services/chatbot-api/internal/utils/platformerrors"
)

// Service describes the conversation use cases. Every operation is scoped to ownerID.
type Service interface {
	CreateConversation(ctx context.Context, ownerID uuid.UUID, title string) (*Conversation, error)
	// GetConversation returns (nil, nil) when the conversation does not exist or belongs to someone else.
	GetConversation(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*Conversation, error)
	ListConversations(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Conversation, error)
	GetConversationMessages(ctx context.Context, conversationID uuid.UUID, ownerID uuid.UUID, limit, offset int) ([]*Message, error)
	SendMessage(ctx context.Context, conversationID uuid.UUID, ownerID uuid.UUID, content string) (*Message, error)
	GenerateConversationTitle(ctx context.Context, conversationID uuid.UUID, ownerID uuid.UUID) (*Conversation, error)
	DeleteConversation(ctx context.Context, conversationID uuid.UUID, ownerID uuid.UUID) error
}

// Settings tunes the service.
type Settings struct {
	// MaxHistoryMessages caps how many prior messages are sent to the generator. Zero sends all of them.
	MaxHistoryMessages int
	// Now overrides the clock used for new entities.
	Now func() time.Time
}

type service struct {
	conversations ConversationRepository
	messages      MessageRepository
	generator     TextGenerator
	settings      Settings
	log           zerolog.Logger
}

// NewService wires the conversation service with its repositories and text generator.
func NewService(conversations ConversationRepository, messages MessageRepository, generator TextGenerator, settings Settings, log zerolog.Logger) Service {
	if settings.Now == nil {
		settings.Now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		conversations: conversations,
		messages:      messages,
		generator:     generator,
		settings:      settings,
		log:           log.With().Str("component", "conversation-service").Logger(),
	}
}

func (s *service) CreateConversation(ctx context.Context, ownerID uuid.UUID, title string) (*Conversation, error) {
	conv, err := NewConversation(ownerID, title, s.settings.Now())
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid conversation", err, "32097a75-6108-45b0-bb98-3ec56b0e9a8a")
	}

	stored, err := s.conversations.Create(ctx, conv)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create conversation")
	}
	metrics.RecordConversationCreated()
	s.log.Debug().Str("conversation_id", stored.ID.String()).Msg("conversation created")
	return stored, nil
}

func (s *service) GetConversation(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*Conversation, error) {
	conv, err := s.conversations.FindByID(ctx, id, ownerID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to get conversation")
	}
	return conv, nil
}

func (s *service) ListConversations(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Conversation, error) {
	limit, offset = NormalizeConversationPage(limit, offset)
	conversations, err := s.conversations.List(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list conversations")
	}
	return conversations, nil
}

func (s *service) GetConversationMessages(ctx context.Context, conversationID uuid.UUID, ownerID uuid.UUID, limit, offset int) ([]*Message, error) {
	if _, err := s.ownedConversation(ctx, conversationID, ownerID); err != nil {
		return nil, err
	}

	limit, offset = NormalizeConversationPage(limit, offset)
	messages, err := s.messages.ListByConversation(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list messages")
	}
	return messages, nil
}

// SendMessage stores the user's message, asks the generator for a reply and
// stores that too. Steps run strictly in order and nothing is rolled back: if
// generation or the second write fails, the user message stays persisted.
func (s *service) SendMessage(ctx context.Context, conversationID uuid.UUID, ownerID uuid.UUID, content string) (*Message, error) {
	if _, err := s.ownedConversation(ctx, conversationID, ownerID); err != nil {
		return nil, err
	}

	history, err := s.messages.ListByConversation(ctx, conversationID, 0, 0)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load conversation history")
	}
	history = s.trimHistory(history)

	userMessage, err := s.appendMessage(ctx, conversationID, RoleUser, content)
	if err != nil {
		return nil, err
	}

	reply, err := s.generator.GenerateReply(ctx, content, history)
	if err != nil {
		s.log.Warn().
			Str("conversation_id", conversationID.String()).
			Str("user_message_id", userMessage.ID.String()).
			Msg("reply generation failed after user message was stored")
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate reply")
	}

	return s.appendMessage(ctx, conversationID, RoleAssistant, reply)
}

func (s *service) GenerateConversationTitle(ctx context.Context, conversationID uuid.UUID, ownerID uuid.UUID) (*Conversation, error) {
	conv, err := s.ownedConversation(ctx, conversationID, ownerID)
	if err != nil {
		return nil, err
	}

	history, err := s.messages.ListByConversation(ctx, conversationID, 0, 0)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load conversation history")
	}

	seed := ""
	found := false
	for _, msg := range history {
		if msg.Role == RoleUser {
			seed = msg.Content
			found = true
			break
		}
	}
	if !found {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "conversation has no user messages to title from", nil, "e752733b-d717-46a8-b11c-1dbe93eb3527")
	}

	title, err := s.generator.GenerateTitle(ctx, seed)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate title")
	}

	conv.Title = title
	conv.UpdatedAt = s.settings.Now()
	updated, err := s.conversations.Update(ctx, conv)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update conversation")
	}
	return updated, nil
}

func (s *service) DeleteConversation(ctx context.Context, conversationID uuid.UUID, ownerID uuid.UUID) error {
	if _, err := s.ownedConversation(ctx, conversationID, ownerID); err != nil {
		return err
	}

	messages, err := s.messages.ListByConversation(ctx, conversationID, 0, 0)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load conversation messages")
	}
	for _, msg := range messages {
		if _, err := s.messages.Delete(ctx, msg.ID); err != nil {
			return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete message")
		}
	}

	deleted, err := s.conversations.Delete(ctx, conversationID)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete conversation")
	}
	if !deleted {
		return notFound(ctx, conversationID)
	}
	s.log.Debug().
		Str("conversation_id", conversationID.String()).
		Int("messages", len(messages)).
		Msg("conversation deleted")
	return nil
}

// ownedConversation loads a conversation and treats a foreign owner the same as a missing row.
func (s *service) ownedConversation(ctx context.Context, conversationID uuid.UUID, ownerID uuid.UUID) (*Conversation, error) {
	conv, err := s.conversations.FindByID(ctx, conversationID, ownerID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to get conversation")
	}
	if conv == nil || conv.UserID != ownerID {
		return nil, notFound(ctx, conversationID)
	}
	return conv, nil
}

func (s *service) appendMessage(ctx context.Context, conversationID uuid.UUID, role Role, content string) (*Message, error) {
	msg, err := NewMessage(conversationID, role, content, s.settings.Now())
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid message", err, "8a4a489e-be4a-4852-b896-ba6e2cf88d8c")
	}

	stored, err := s.messages.Create(ctx, msg)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, fmt.Sprintf("failed to store %s message", role))
	}
	metrics.RecordMessagePersisted(string(role))
	return stored, nil
}

func (s *service) trimHistory(history []*Message) []*Message {
	limit := s.settings.MaxHistoryMessages
	if limit <= 0 || len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}

func notFound(ctx context.Context, conversationID uuid.UUID) error {
	return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
		fmt.Sprintf("Conversation %s not found", conversationID), nil, "1846d56f-0d1e-4d43-a19f-19a1e80b3127",
		map[string]any{"conversation_id": conversationID.String()})
}
