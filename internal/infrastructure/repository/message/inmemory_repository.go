package message

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	domain "jan-server/services/chatbot-api/internal/domain/conversation"
	"jan-server/services/chatbot-api/internal/utils/platformerrors"
)

// InMemoryRepository keeps messages in insertion order, guarded by a RWMutex.
type InMemoryRepository struct {
	mu      sync.RWMutex
	entries []domain.Message
}

// NewInMemoryRepository returns an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

func (r *InMemoryRepository) Create(ctx context.Context, message *domain.Message) (*domain.Message, error) {
	if !message.Role.Valid() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("invalid message role %q", message.Role), domain.ErrInvalidRole, "2ea1b414-7364-4e7c-84b1-12bef3ba47a9")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.entries {
		if existing.ID == message.ID {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict,
				fmt.Sprintf("message %s already exists", message.ID), nil, "87dc18f9-a02e-4af4-bcdb-ecf756a952f0")
		}
	}
	r.entries = append(r.entries, *message)

	stored := *message
	return &stored, nil
}

func (r *InMemoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, entry := range r.entries {
		if entry.ID == id {
			found := entry
			return &found, nil
		}
	}
	return nil, nil
}

func (r *InMemoryRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*domain.Message, error) {
	limit, offset = domain.NormalizeMessagePage(limit, offset)

	r.mu.RLock()
	matched := make([]domain.Message, 0)
	for _, entry := range r.entries {
		if entry.ConversationID == conversationID {
			matched = append(matched, entry)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	if offset >= len(matched) {
		return []*domain.Message{}, nil
	}
	if remaining := len(matched) - offset; limit <= 0 || limit > remaining {
		limit = remaining
	}

	result := make([]*domain.Message, 0, limit)
	for i := offset; i < offset+limit; i++ {
		entry := matched[i]
		result = append(result, &entry)
	}
	return result, nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, entry := range r.entries {
		if entry.ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

var _ domain.MessageRepository = (*InMemoryRepository)(nil)
