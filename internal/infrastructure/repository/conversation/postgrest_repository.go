package conversation

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

const conversationsTable = "conversations"

type conversationRow struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostgRESTRepository stores conversations in a Supabase table over its REST API.
type PostgRESTRepository struct {
	client *postgrest.Client
}

// NewPostgRESTRepository creates a repository on top of a PostgREST client.
func NewPostgRESTRepository(client *postgrest.Client) *PostgRESTRepository {
	return &PostgRESTRepository{client: client}
}

func (r *PostgRESTRepository) Create(ctx context.Context, conversation *domain.Conversation) (*domain.Conversation, error) {
	var rows []conversationRow
	if err := r.client.Insert(ctx, conversationsTable, toRow(conversation), &rows); err != nil {
		return nil, restError(ctx, "create", err, "fb43216c-fbc0-4283-a7d9-12fcf373d7a4")
	}
	if len(rows) == 0 {
		return nil, restError(ctx, "create", fmt.Errorf("insert returned no rows"), "b8a3e878-91d1-4cf8-b358-7dc7f8df82d2")
	}
	return fromRow(rows[0]), nil
}

func (r *PostgRESTRepository) FindByID(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*domain.Conversation, error) {
	var rows []conversationRow
	query := postgrest.Query{
		Filters: []postgrest.Filter{
			postgrest.Eq("id", id.String()),
			postgrest.Eq("user_id", ownerID.String()),
		},
	}
	if err := r.client.Select(ctx, conversationsTable, query, &rows); err != nil {
		return nil, restError(ctx, "find", err, "4578e9f1-e564-4062-805a-fc9706bce389")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return fromRow(rows[0]), nil
}

func (r *PostgRESTRepository) List(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*domain.Conversation, error) {
	limit, offset = domain.NormalizeConversationPage(limit, offset)

	var rows []conversationRow
	query := postgrest.Query{
		Filters: []postgrest.Filter{postgrest.Eq("user_id", ownerID.String())},
		Order:   "created_at,id",
		Desc:    true,
		Limit:   limit,
		Offset:  offset,
	}
	if err := r.client.Select(ctx, conversationsTable, query, &rows); err != nil {
		return nil, restError(ctx, "list", err, "e2daa59c-b984-4faa-b564-176d8c3d8e79")
	}

	result := make([]*domain.Conversation, 0, len(rows))
	for _, row := range rows {
		result = append(result, fromRow(row))
	}
	return result, nil
}

func (r *PostgRESTRepository) Update(ctx context.Context, conversation *domain.Conversation) (*domain.Conversation, error) {
	var rows []conversationRow
	patch := map[string]any{
		"title":      conversation.Title,
		"updated_at": conversation.UpdatedAt,
	}
	query := postgrest.Query{Filters: []postgrest.Filter{postgrest.Eq("id", conversation.ID.String())}}
	if err := r.client.Update(ctx, conversationsTable, query, patch, &rows); err != nil {
		return nil, restError(ctx, "update", err, "da2371f9-afd3-49b8-a8d1-889cdbf75990")
	}
	if len(rows) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("Conversation %s not found", conversation.ID), nil, "9a637d8a-0902-4f11-8394-abc7b1d05ea9")
	}
	return fromRow(rows[0]), nil
}

func (r *PostgRESTRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	var rows []conversationRow
	query := postgrest.Query{Filters: []postgrest.Filter{postgrest.Eq("id", id.String())}}
	if err := r.client.Delete(ctx, conversationsTable, query, &rows); err != nil {
		return false, restError(ctx, "delete", err, "b3581ee4-9153-4223-a678-1ccb65e8df70")
	}
	return len(rows) > 0, nil
}

func restError(ctx context.Context, operation string, err error, errUUID string) error {
	metrics.RecordStoreError("postgrest", "conversation_"+operation)
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeExternal,
		fmt.Sprintf("failed to %s conversation", operation), err, errUUID)
}

func toRow(conversation *domain.Conversation) conversationRow {
	return conversationRow{
		ID:        conversation.ID,
		UserID:    conversation.UserID,
		Title:     conversation.Title,
		CreatedAt: conversation.CreatedAt,
		UpdatedAt: conversation.UpdatedAt,
	}
}

func fromRow(row conversationRow) *domain.Conversation {
	return &domain.Conversation{
		ID:        row.ID,
		UserID:    row.UserID,
		Title:     row.Title,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

var _ domain.ConversationRepository = (*PostgRESTRepository)(nil)
