package message

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "jan-server/services/chatbot-api/internal/domain/conversation"
	"jan-server/services/chatbot-api/internal/infrastructure/database/entities"
	"jan-server/services/chatbot-api/internal/infrastructure/metrics"
	"jan-server/services/chatbot-api/internal/utils/platformerrors"
)

// GormRepository persists messages through GORM (PostgreSQL or SQLite).
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a repository backed by the provided DB.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, message *domain.Message) (*domain.Message, error) {
	if !message.Role.Valid() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("invalid message role %q", message.Role), domain.ErrInvalidRole, "33d568d0-7247-412e-87fd-279366e2d1ea")
	}

	record := toEntity(message)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, r.dbError(ctx, "create", err, "78ca1081-7634-4c6a-8da5-f4dec61fb797")
	}
	return fromEntity(record)
}

func (r *GormRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	var record entities.Message
	err := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, r.dbError(ctx, "find", err, "9f29b722-8cfb-4100-affd-07f4bb6d61a4")
	}
	return fromEntity(record)
}

func (r *GormRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*domain.Message, error) {
	limit, offset = domain.NormalizeMessagePage(limit, offset)

	query := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID.String()).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var records []entities.Message
	if err := query.Find(&records).Error; err != nil {
		return nil, r.dbError(ctx, "list", err, "e5b1fda4-38da-421f-8345-8ed717ee1ab2")
	}

	result := make([]*domain.Message, 0, len(records))
	for _, record := range records {
		msg, err := fromEntity(record)
		if err != nil {
			return nil, r.dbError(ctx, "list", err, "7d51e50b-e18f-42e1-bf11-13a76f0e66ee")
		}
		result = append(result, msg)
	}
	return result, nil
}

func (r *GormRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&entities.Message{})
	if result.Error != nil {
		return false, r.dbError(ctx, "delete", result.Error, "dd26c886-0b97-47b0-93c1-fe9203408601")
	}
	return result.RowsAffected > 0, nil
}

func (r *GormRepository) dbError(ctx context.Context, operation string, err error, errUUID string) error {
	metrics.RecordStoreError(r.db.Dialector.Name(), "message_"+operation)
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
		fmt.Sprintf("failed to %s message", operation), err, errUUID)
}

func toEntity(message *domain.Message) entities.Message {
	return entities.Message{
		ID:             message.ID.String(),
		ConversationID: message.ConversationID.String(),
		Role:           string(message.Role),
		Content:        message.Content,
		CreatedAt:      message.CreatedAt,
	}
}

func fromEntity(record entities.Message) (*domain.Message, error) {
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return nil, fmt.Errorf("parse message id: %w", err)
	}
	conversationID, err := uuid.Parse(record.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("parse message conversation id: %w", err)
	}
	role, err := domain.ParseRole(record.Role)
	if err != nil {
		return nil, err
	}
	return &domain.Message{
		ID:             id,
		ConversationID: conversationID,
		Role:           role,
		Content:        record.Content,
		CreatedAt:      record.CreatedAt.UTC(),
	}, nil
}

var _ domain.MessageRepository = (*GormRepository)(nil)
