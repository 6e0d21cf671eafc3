package llmprovider

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	domain "jan-server/services/chatbot-api/internal/domain/conversation"
)

// ChatCompletionClient calls an OpenAI-compatible /chat/completions endpoint through Resty.
type ChatCompletionClient struct {
	httpClient  *resty.Client
	model       string
	temperature float32
	log         zerolog.Logger
}

// NewChatCompletionClient creates a Resty-backed generator.
func NewChatCompletionClient(settings Settings, log zerolog.Logger) *ChatCompletionClient {
	return &ChatCompletionClient{
		httpClient: resty.New().
			SetBaseURL(strings.TrimRight(settings.BaseURL, "/")).
			SetHeader("Content-Type", "application/json").
			SetAuthToken(settings.APIKey).
			SetTimeout(settings.Timeout),
		model:       settings.Model,
		temperature: settings.Temperature,
		log:         log.With().Str("component", "chat-completion-client").Logger(),
	}
}

// GenerateReply sends the history plus text and returns the assistant reply unchanged.
func (c *ChatCompletionClient) GenerateReply(ctx context.Context, text string, history []*domain.Message) (string, error) {
	return observe(ctx, c.model, ClientOpenAI, operationReply, func() (string, error) {
		turns, err := buildTurns(history, text)
		if err != nil {
			return "", err
		}
		messages := make([]openai.ChatCompletionMessage, 0, len(turns))
		for _, t := range turns {
			messages = append(messages, openai.ChatCompletionMessage{Role: chatRole(t.role), Content: t.content})
		}
		return c.complete(ctx, messages)
	})
}

// GenerateTitle asks for a short conversation title and trims surrounding whitespace.
func (c *ChatCompletionClient) GenerateTitle(ctx context.Context, seed string) (string, error) {
	return observe(ctx, c.model, ClientOpenAI, operationTitle, func() (string, error) {
		out, err := c.complete(ctx, []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: TitlePrompt(seed)},
		})
		if err != nil {
			return "", err
		}
		return cleanTitle(out), nil
	})
}

func (c *ChatCompletionClient) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	}

	var completion openai.ChatCompletionResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&completion).
		Post("/chat/completions")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		c.log.Warn().Int("status", resp.StatusCode()).Str("model", c.model).Msg("chat completion rejected")
		return "", fmt.Errorf("llm api error: %d %s", resp.StatusCode(), resp.String())
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("llm api returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

func chatRole(role domain.Role) string {
	switch role {
	case domain.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	case domain.RoleSystem:
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}

var _ domain.TextGenerator = (*ChatCompletionClient)(nil)
