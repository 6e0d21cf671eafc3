package conversation

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	domain "jan-server/services/chatbot-api/internal/domain/conversation"
	"jan-server/services/chatbot-api/internal/utils/platformerrors"
)

// InMemoryRepository is a thread-safe repository useful for local runs and tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	order   []uuid.UUID
	entries map[uuid.UUID]domain.Conversation
}

// NewInMemoryRepository returns an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		entries: make(map[uuid.UUID]domain.Conversation),
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, conversation *domain.Conversation) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[conversation.ID]; exists {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict,
			fmt.Sprintf("conversation %s already exists", conversation.ID), nil, "c915e29d-3f84-4fa1-af7e-481b4c4bbe8c")
	}
	r.entries[conversation.ID] = *conversation
	r.order = append(r.order, conversation.ID)

	stored := *conversation
	return &stored, nil
}

func (r *InMemoryRepository) FindByID(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[id]
	if !ok || entry.UserID != ownerID {
		return nil, nil
	}
	return &entry, nil
}

func (r *InMemoryRepository) List(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*domain.Conversation, error) {
	limit, offset = domain.NormalizeConversationPage(limit, offset)

	r.mu.RLock()
	owned := make([]domain.Conversation, 0, len(r.order))
	// walk newest insertion first so equal timestamps still list newest first
	for i := len(r.order) - 1; i >= 0; i-- {
		entry := r.entries[r.order[i]]
		if entry.UserID == ownerID {
			owned = append(owned, entry)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})

	if offset >= len(owned) {
		return []*domain.Conversation{}, nil
	}
	if remaining := len(owned) - offset; limit > remaining {
		limit = remaining
	}

	result := make([]*domain.Conversation, 0, limit)
	for i := offset; i < offset+limit; i++ {
		entry := owned[i]
		result = append(result, &entry)
	}
	return result, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, conversation *domain.Conversation) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.entries[conversation.ID]
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("Conversation %s not found", conversation.ID), nil, "1b2e4546-3a41-4184-9f82-212840ba80e2")
	}
	existing.Title = conversation.Title
	existing.UpdatedAt = conversation.UpdatedAt
	r.entries[conversation.ID] = existing

	return &existing, nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return false, nil
	}
	delete(r.entries, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

var _ domain.ConversationRepository = (*InMemoryRepository)(nil)
