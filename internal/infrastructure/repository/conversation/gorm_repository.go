package conversation

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

// GormRepository persists conversations through GORM (PostgreSQL or SQLite).
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a repository backed by the provided DB.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, conversation *domain.Conversation) (*domain.Conversation, error) {
	record := toEntity(conversation)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, r.dbError(ctx, "create", err, "3fc664a9-5950-47ab-b63e-73b02f722c9a")
	}
	return fromEntity(record)
}

func (r *GormRepository) FindByID(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*domain.Conversation, error) {
	var record entities.Conversation
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id.String(), ownerID.String()).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, r.dbError(ctx, "find", err, "bab3694f-5367-45e2-be16-a32f8178e3f5")
	}
	return fromEntity(record)
}

func (r *GormRepository) List(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*domain.Conversation, error) {
	limit, offset = domain.NormalizeConversationPage(limit, offset)

	var records []entities.Conversation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID.String()).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, r.dbError(ctx, "list", err, "122e5328-4246-4b37-bc3d-c217bbfad6db")
	}

	result := make([]*domain.Conversation, 0, len(records))
	for _, record := range records {
		conv, err := fromEntity(record)
		if err != nil {
			return nil, r.dbError(ctx, "list", err, "7fde93ac-a1ca-4322-b55d-b21690148a2b")
		}
		result = append(result, conv)
	}
	return result, nil
}

func (r *GormRepository) Update(ctx context.Context, conversation *domain.Conversation) (*domain.Conversation, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("id = ?", conversation.ID.String()).
		Updates(map[string]any{
			"title":      conversation.Title,
			"updated_at": conversation.UpdatedAt,
		})
	if result.Error != nil {
		return nil, r.dbError(ctx, "update", result.Error, "e5ab4216-3225-4779-a7d2-fe4034a48dc8")
	}
	if result.RowsAffected == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("Conversation %s not found", conversation.ID), nil, "9c84206a-eb34-4c75-9300-54c03df5f63a")
	}

	var record entities.Conversation
	if err := r.db.WithContext(ctx).Where("id = ?", conversation.ID.String()).First(&record).Error; err != nil {
		return nil, r.dbError(ctx, "update", err, "d67ed0dd-fbd3-4def-9a23-c2506b203a8c")
	}
	return fromEntity(record)
}

func (r *GormRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&entities.Conversation{})
	if result.Error != nil {
		return false, r.dbError(ctx, "delete", result.Error, "cd9cee0a-6fa9-4911-b07b-03fc61a8e8f0")
	}
	return result.RowsAffected > 0, nil
}

func (r *GormRepository) dbError(ctx context.Context, operation string, err error, errUUID string) error {
	metrics.RecordStoreError(r.db.Dialector.Name(), "conversation_"+operation)
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
		fmt.Sprintf("failed to %s conversation", operation), err, errUUID)
}

func toEntity(conversation *domain.Conversation) entities.Conversation {
	return entities.Conversation{
		ID:        conversation.ID.String(),
		UserID:    conversation.UserID.String(),
		Title:     conversation.Title,
		CreatedAt: conversation.CreatedAt,
		UpdatedAt: conversation.UpdatedAt,
	}
}

func fromEntity(record entities.Conversation) (*domain.Conversation, error) {
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return nil, fmt.Errorf("parse conversation id: %w", err)
	}
	userID, err := uuid.Parse(record.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse conversation user id: %w", err)
	}
	return &domain.Conversation{
		ID:        id,
		UserID:    userID,
		Title:     record.Title,
		CreatedAt: record.CreatedAt.UTC(),
		UpdatedAt: record.UpdatedAt.UTC(),
	}, nil
}

var _ domain.ConversationRepository = (*GormRepository)(nil)
