package conversation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/chatbot-api/internal/domain/conversation"
	conversationrepo "jan-server/services/chatbot-api/internal/infrastructure/repository/conversation"
	messagerepo "jan-server/services/chatbot-api/internal/infrastructure/repository/message"
	"jan-server/services/chatbot-api/internal/utils/platformerrors"
)

type fakeGenerator struct {
	reply      func(ctx context.Context, text string, history []*conversation.Message) (string, error)
	title      func(ctx context.Context, seed string) (string, error)
	histories  [][]*conversation.Message
	titleSeeds []string
}

func (f *fakeGenerator) GenerateReply(ctx context.Context, text string, history []*conversation.Message) (string, error) {
	f.histories = append(f.histories, history)
	if f.reply != nil {
		return f.reply(ctx, text, history)
	}
	return "echo: " + text, nil
}

func (f *fakeGenerator) GenerateTitle(ctx context.Context, seed string) (string, error) {
	f.titleSeeds = append(f.titleSeeds, seed)
	if f.title != nil {
		return f.title(ctx, seed)
	}
	return "Generated title", nil
}

type fixture struct {
	svc           conversation.Service
	conversations *conversationrepo.InMemoryRepository
	messages      *messagerepo.InMemoryRepository
	generator     *fakeGenerator
}

func newFixture(t *testing.T, maxHistory int) *fixture {
	t.Helper()
	clock := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	f := &fixture{
		conversations: conversationrepo.NewInMemoryRepository(),
		messages:      messagerepo.NewInMemoryRepository(),
		generator:     &fakeGenerator{},
	}
	f.svc = conversation.NewService(f.conversations, f.messages, f.generator, conversation.Settings{
		MaxHistoryMessages: maxHistory,
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	}, zerolog.Nop())
	return f
}

func (f *fixture) stored(t *testing.T, conversationID uuid.UUID) []*conversation.Message {
	t.Helper()
	msgs, err := f.messages.ListByConversation(context.Background(), conversationID, 0, 0)
	require.NoError(t, err)
	return msgs
}

func TestCreateConversation(t *testing.T) {
	f := newFixture(t, 0)
	owner := uuid.New()

	conv, err := f.svc.CreateConversation(context.Background(), owner, "Trip planning")
	require.NoError(t, err)
	assert.Equal(t, owner, conv.UserID)
	assert.Equal(t, "Trip planning", conv.Title)
	assert.Equal(t, conv.CreatedAt, conv.UpdatedAt)

	got, err := f.svc.GetConversation(context.Background(), conv.ID, owner)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, conv.ID, got.ID)
}

func TestCreateConversation_EmptyTitleAllowed(t *testing.T) {
	f := newFixture(t, 0)
	conv, err := f.svc.CreateConversation(context.Background(), uuid.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "", conv.Title)
}

func TestGetConversation_ForeignOwnerLooksMissing(t *testing.T) {
	f := newFixture(t, 0)
	conv, err := f.svc.CreateConversation(context.Background(), uuid.New(), "private")
	require.NoError(t, err)

	got, err := f.svc.GetConversation(context.Background(), conv.ID, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListConversations_NewestFirst(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	owner := uuid.New()

	for _, title := range []string{"a", "b", "c"} {
		_, err := f.svc.CreateConversation(ctx, owner, title)
		require.NoError(t, err)
	}
	_, err := f.svc.CreateConversation(ctx, uuid.New(), "someone else")
	require.NoError(t, err)

	list, err := f.svc.ListConversations(ctx, owner, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].Title)
	assert.Equal(t, "a", list[2].Title)

	page, err := f.svc.ListConversations(ctx, owner, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "b", page[0].Title)
}

func TestSendMessage_PersistsBothTurns(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	owner := uuid.New()
	conv, err := f.svc.CreateConversation(ctx, owner, "Trip planning")
	require.NoError(t, err)

	reply, err := f.svc.SendMessage(ctx, conv.ID, owner, "Where should I go in March?")
	require.NoError(t, err)
	assert.Equal(t, conversation.RoleAssistant, reply.Role)
	assert.Equal(t, "echo: Where should I go in March?", reply.Content)
	assert.Equal(t, conv.ID, reply.ConversationID)

	msgs := f.stored(t, conv.ID)
	require.Len(t, msgs, 2)
	assert.Equal(t, conversation.RoleUser, msgs[0].Role)
	assert.Equal(t, "Where should I go in March?", msgs[0].Content)
	assert.Equal(t, reply.ID, msgs[1].ID)
	assert.True(t, msgs[0].CreatedAt.Before(msgs[1].CreatedAt))

	// history handed to the generator excludes the new message
	require.Len(t, f.generator.histories, 1)
	assert.Empty(t, f.generator.histories[0])

	_, err = f.svc.SendMessage(ctx, conv.ID, owner, "And in April?")
	require.NoError(t, err)
	require.Len(t, f.generator.histories, 2)
	require.Len(t, f.generator.histories[1], 2)
	assert.Equal(t, "Where should I go in March?", f.generator.histories[1][0].Content)
	assert.Len(t, f.stored(t, conv.ID), 4)
}

func TestSendMessage_UnknownConversation(t *testing.T) {
	f := newFixture(t, 0)
	missing := uuid.New()

	_, err := f.svc.SendMessage(context.Background(), missing, uuid.New(), "hello")
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
	assert.Contains(t, err.Error(), "Conversation "+missing.String()+" not found")

	assert.Empty(t, f.stored(t, missing))
	assert.Empty(t, f.generator.histories)
}

func TestSendMessage_ForeignOwner(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	conv, err := f.svc.CreateConversation(ctx, uuid.New(), "private")
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, conv.ID, uuid.New(), "let me in")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
	assert.Empty(t, f.stored(t, conv.ID))
}

func TestSendMessage_GenerationFailureKeepsUserMessage(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	owner := uuid.New()
	conv, err := f.svc.CreateConversation(ctx, owner, "Trip planning")
	require.NoError(t, err)

	f.generator.reply = func(ctx context.Context, text string, history []*conversation.Message) (string, error) {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "provider down", errors.New("503"), "")
	}

	_, err = f.svc.SendMessage(ctx, conv.ID, owner, "Where should I go in March?")
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeExternal))

	msgs := f.stored(t, conv.ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, conversation.RoleUser, msgs[0].Role)
}

func TestSendMessage_HistoryCap(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	owner := uuid.New()
	conv, err := f.svc.CreateConversation(ctx, owner, "long chat")
	require.NoError(t, err)

	for _, text := range []string{"one", "two", "three"} {
		_, err := f.svc.SendMessage(ctx, conv.ID, owner, text)
		require.NoError(t, err)
	}

	last := f.generator.histories[len(f.generator.histories)-1]
	require.Len(t, last, 3)
	assert.Equal(t, "echo: one", last[0].Content)
	assert.Equal(t, "two", last[1].Content)
	assert.Equal(t, "echo: two", last[2].Content)
}

func TestGetConversationMessages(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	owner := uuid.New()
	conv, err := f.svc.CreateConversation(ctx, owner, "chat")
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, conv.ID, owner, "hi")
	require.NoError(t, err)

	msgs, err := f.svc.GetConversationMessages(ctx, conv.ID, owner, 100, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Content)

	_, err = f.svc.GetConversationMessages(ctx, conv.ID, uuid.New(), 100, 0)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestGenerateConversationTitle(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	owner := uuid.New()
	conv, err := f.svc.CreateConversation(ctx, owner, "")
	require.NoError(t, err)

	_, err = f.svc.GenerateConversationTitle(ctx, conv.ID, owner)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))

	_, err = f.svc.SendMessage(ctx, conv.ID, owner, "Where should I go in March?")
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, conv.ID, owner, "And in April?")
	require.NoError(t, err)

	updated, err := f.svc.GenerateConversationTitle(ctx, conv.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "Generated title", updated.Title)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
	assert.Equal(t, []string{"Where should I go in March?"}, f.generator.titleSeeds)

	got, err := f.svc.GetConversation(ctx, conv.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "Generated title", got.Title)
}

func TestDeleteConversation(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	owner := uuid.New()
	conv, err := f.svc.CreateConversation(ctx, owner, "short lived")
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, conv.ID, owner, "hi")
	require.NoError(t, err)

	err = f.svc.DeleteConversation(ctx, conv.ID, uuid.New())
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))

	require.NoError(t, f.svc.DeleteConversation(ctx, conv.ID, owner))
	assert.Empty(t, f.stored(t, conv.ID))

	got, err := f.svc.GetConversation(ctx, conv.ID, owner)
	require.NoError(t, err)
	assert.Nil(t, got)

	err = f.svc.DeleteConversation(ctx, conv.ID, owner)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}
