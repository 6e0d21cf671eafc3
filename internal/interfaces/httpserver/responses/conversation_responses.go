package responses

import (
	"time"

	"jan-server/services/chatbot-api/internal/domain/conversation"
)

// ConversationResponse is the public JSON shape of a conversation.
type ConversationResponse struct {
	ID        string    `json:"id" example:"2f1e9c8a-7d4b-4f3e-9a21-6c5b8d7e0f12"`
	UserID    string    `json:"user_id" example:"9b7c6d5e-4f3a-2b1c-0d9e-8f7a6b5c4d3e"`
	Title     string    `json:"title" example:"Trip planning"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MessageResponse is the public JSON shape of a message.
type MessageResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role" example:"assistant" enums:"user,assistant,system"`
	Content        string    `json:"content" example:"Lisbon is mild and sunny in March."`
	CreatedAt      time.Time `json:"created_at"`
}

// RootResponse is returned by GET /.
type RootResponse struct {
	Message string `json:"message" example:"Welcome to Supabase Chatbot API"`
	Docs    string `json:"docs" example:"/docs"`
	Version string `json:"version" example:"0.1.0"`
}

// StatusResponse is returned by the health and readiness probes.
type StatusResponse struct {
	Status string `json:"status" example:"healthy"`
}

// MapConversation converts a domain conversation to its response.
func MapConversation(c *conversation.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:        c.ID.String(),
		UserID:    c.UserID.String(),
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// MapConversations converts a list, never returning nil so empty lists encode as [].
func MapConversations(items []*conversation.Conversation) []ConversationResponse {
	out := make([]ConversationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, MapConversation(item))
	}
	return out
}

// MapMessage converts a domain message to its response.
func MapMessage(m *conversation.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		Role:           string(m.Role),
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

// MapMessages converts a list, never returning nil.
func MapMessages(items []*conversation.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(items))
	for _, item := range items {
		out = append(out, MapMessage(item))
	}
	return out
}
