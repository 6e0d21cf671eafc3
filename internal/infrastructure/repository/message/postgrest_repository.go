package message

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	domain "jan-server/services/chatbot-api/internal/domain/conversation"
	"jan-server/services/chatbot-api/internal/infrastructure/metrics"
	"jan-server/services/chatbot-api/internal/infrastructure/postgrest"
	"jan-server/services/chatbot-api/internal/utils/platformerrors"
)

const messagesTable = "messages"

type messageRow struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// PostgRESTRepository stores messages in a Supabase table over its REST API.
type PostgRESTRepository struct {
	client *postgrest.Client
}

// NewPostgRESTRepository creates a repository on top of a PostgREST client.
func NewPostgRESTRepository(client *postgrest.Client) *PostgRESTRepository {
	return &PostgRESTRepository{client: client}
}

func (r *PostgRESTRepository) Create(ctx context.Context, message *domain.Message) (*domain.Message, error) {
	if !message.Role.Valid() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("invalid message role %q", message.Role), domain.ErrInvalidRole, "1f0d905b-9d17-4042-9450-6fced4393f55")
	}

	var rows []messageRow
	if err := r.client.Insert(ctx, messagesTable, toRow(message), &rows); err != nil {
		return nil, restError(ctx, "create", err, "cac7428e-b1eb-4d32-9177-9502c850a23d")
	}
	if len(rows) == 0 {
		return nil, restError(ctx, "create", fmt.Errorf("insert returned no rows"), "4390a75e-1b2f-4732-a8d9-71b57c4533c7")
	}
	return r.decode(ctx, rows[0])
}

func (r *PostgRESTRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	var rows []messageRow
	query := postgrest.Query{Filters: []postgrest.Filter{postgrest.Eq("id", id.String())}}
	if err := r.client.Select(ctx, messagesTable, query, &rows); err != nil {
		return nil, restError(ctx, "find", err, "2327e80a-087d-4d6c-87d0-ad4b768d0f02")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return r.decode(ctx, rows[0])
}

func (r *PostgRESTRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*domain.Message, error) {
	limit, offset = domain.NormalizeMessagePage(limit, offset)

	var rows []messageRow
	query := postgrest.Query{
		Filters: []postgrest.Filter{postgrest.Eq("conversation_id", conversationID.String())},
		Order:   "created_at,id",
		Limit:   limit,
		Offset:  offset,
	}
	if err := r.client.Select(ctx, messagesTable, query, &rows); err != nil {
		return nil, restError(ctx, "list", err, "03e5c3a5-4375-46c6-a653-1aff0d550d67")
	}

	result := make([]*domain.Message, 0, len(rows))
	for _, row := range rows {
		msg, err := r.decode(ctx, row)
		if err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, nil
}

func (r *PostgRESTRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	var rows []messageRow
	query := postgrest.Query{Filters: []postgrest.Filter{postgrest.Eq("id", id.String())}}
	if err := r.client.Delete(ctx, messagesTable, query, &rows); err != nil {
		return false, restError(ctx, "delete", err, "eff6b6c4-d1d3-4ff9-b1ea-e3e8810ce5bb")
	}
	return len(rows) > 0, nil
}

func (r *PostgRESTRepository) decode(ctx context.Context, row messageRow) (*domain.Message, error) {
	role, err := domain.ParseRole(row.Role)
	if err != nil {
		return nil, restError(ctx, "decode", err, "7b6c09bf-4188-46a4-9a01-38f7886db754")
	}
	return &domain.Message{
		ID:             row.ID,
		ConversationID: row.ConversationID,
		Role:           role,
		Content:        row.Content,
		CreatedAt:      row.CreatedAt.UTC(),
	}, nil
}

func restError(ctx context.Context, operation string, err error, errUUID string) error {
	metrics.RecordStoreError("postgrest", "message_"+operation)
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeExternal,
		fmt.Sprintf("failed to %s message", operation), err, errUUID)
}

func toRow(message *domain.Message) messageRow {
	return messageRow{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		Role:           string(message.Role),
		Content:        message.Content,
		CreatedAt:      message.CreatedAt,
	}
}

var _ domain.MessageRepository = (*PostgRESTRepository)(nil)
