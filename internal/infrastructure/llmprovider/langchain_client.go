package llmprovider

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	domain "jan-server/services/chatbot-api/internal/domain/conversation"
)

// LangChainClient generates text through langchaingo's OpenAI-compatible model.
type LangChainClient struct {
	llm         llms.Model
	model       string
	temperature float64
	log         zerolog.Logger
}

// NewLangChainClient builds the langchaingo model for the configured endpoint.
func NewLangChainClient(settings Settings, log zerolog.Logger) (*LangChainClient, error) {
	llm, err := lcopenai.New(
		lcopenai.WithToken(settings.APIKey),
		lcopenai.WithBaseURL(settings.BaseURL),
		lcopenai.WithModel(settings.Model),
		lcopenai.WithHTTPClient(&http.Client{Timeout: settings.Timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("create langchain openai client: %w", err)
	}

	return &LangChainClient{
		llm:         llm,
		model:       settings.Model,
		temperature: float64(settings.Temperature),
		log:         log.With().Str("component", "langchain-client").Logger(),
	}, nil
}

func (c *LangChainClient) GenerateReply(ctx context.Context, text string, history []*domain.Message) (string, error) {
	return observe(ctx, c.model, ClientLangChain, operationReply, func() (string, error) {
		turns, err := buildTurns(history, text)
		if err != nil {
			return "", err
		}
		content := make([]llms.MessageContent, 0, len(turns))
		for _, t := range turns {
			content = append(content, llms.TextParts(messageType(t.role), t.content))
		}
		return c.generate(ctx, content)
	})
}

func (c *LangChainClient) GenerateTitle(ctx context.Context, seed string) (string, error) {
	return observe(ctx, c.model, ClientLangChain, operationTitle, func() (string, error) {
		out, err := c.generate(ctx, []llms.MessageContent{
			llms.TextParts(schema.ChatMessageTypeHuman, TitlePrompt(seed)),
		})
		if err != nil {
			return "", err
		}
		return cleanTitle(out), nil
	})
}

func (c *LangChainClient) generate(ctx context.Context, content []llms.MessageContent) (string, error) {
	resp, err := c.llm.GenerateContent(ctx, content, llms.WithTemperature(c.temperature))
	if err != nil {
		c.log.Warn().Err(err).Str("model", c.model).Msg("langchain generation failed")
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("langchain returned no choices")
	}
	return resp.Choices[0].Content, nil
}

func messageType(role domain.Role) schema.ChatMessageType {
	switch role {
	case domain.RoleAssistant:
		return schema.ChatMessageTypeAI
	case domain.RoleSystem:
		return schema.ChatMessageTypeSystem
	default:
		return schema.ChatMessageTypeHuman
	}
}

var _ domain.TextGenerator = (*LangChainClient)(nil)
