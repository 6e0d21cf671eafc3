package llmprovider

import (
	"context"
	"fmt"
	"strings"
	"time"

	domain "jan-server/services/chatbot-api/internal/domain/conversation"
	"jan-server/services/chatbot-api/internal/infrastructure/metrics"
	"jan-server/services/chatbot-api/internal/utils/platformerrors"
)

// Client names used in metrics labels.
const (
	ClientOpenAI    = "openai"
	ClientLangChain = "langchain"
)

const (
	operationReply = "reply"
	operationTitle = "title"
)

const titlePromptTemplate = "Generate a short title (max 50 characters) for a conversation that starts with: '%s'. Only return the title, nothing else."

// Settings configures an OpenAI-compatible chat completion endpoint (OpenRouter by default).
type Settings struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// TitlePrompt builds the single-turn prompt used to name a conversation.
func TitlePrompt(seed string) string {
	return fmt.Sprintf(titlePromptTemplate, seed)
}

// turn is a provider-neutral chat message.
type turn struct {
	role    domain.Role
	content string
}

// buildTurns converts stored history into chat turns and appends text as the final user turn.
func buildTurns(history []*domain.Message, text string) ([]turn, error) {
	turns := make([]turn, 0, len(history)+1)
	for _, msg := range history {
		if !msg.Role.Valid() {
			return nil, fmt.Errorf("%w: %q in message %s", domain.ErrInvalidRole, msg.Role, msg.ID)
		}
		turns = append(turns, turn{role: msg.Role, content: msg.Content})
	}
	return append(turns, turn{role: domain.RoleUser, content: text}), nil
}

func cleanTitle(raw string) string {
	return strings.TrimSpace(raw)
}

// observe times a provider call and converts failures into EXTERNAL platform errors.
func observe(ctx context.Context, model, client, operation string, call func() (string, error)) (string, error) {
	start := time.Now()
	out, err := call()
	metrics.RecordLLMDuration(model, client, operation, time.Since(start).Seconds())
	if err != nil {
		metrics.RecordProviderError(client, operation)
		return "", platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			fmt.Sprintf("text generation failed: %v", err), err, "b4a5955b-57a1-4f09-91ca-d0f9eaea8678",
			map[string]any{"client": client, "operation": operation, "model": model})
	}
	return out, nil
}
