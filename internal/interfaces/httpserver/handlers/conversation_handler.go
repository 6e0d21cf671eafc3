package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"jan-server/services/chatbot-api/internal/domain/conversation"
	"jan-server/services/chatbot-api/internal/domain/principal"
	"jan-server/services/chatbot-api/internal/infrastructure/auth"
	"jan-server/services/chatbot-api/internal/interfaces/httpserver/requests"
	"jan-server/services/chatbot-api/internal/interfaces/httpserver/responses"
	"jan-server/services/chatbot-api/internal/utils/platformerrors"
)

// ConversationHandler exposes HTTP entrypoints for conversations and messages.
type ConversationHandler struct {
	service conversation.Service
	log     zerolog.Logger
}

// NewConversationHandler constructs the handler.
func NewConversationHandler(service conversation.Service, log zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: service,
		log:     log.With().Str("handler", "conversation").Logger(),
	}
}

// Create handles POST /api/v1/conversations
// @Summary Create a conversation
// @Description Creates an empty conversation owned by the caller
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body requests.CreateConversationRequest true "Conversation"
// @Success 201 {object} responses.ConversationResponse
// @Failure 400 {object} responses.ErrorResponse
// @Failure 401 {object} responses.ErrorResponse
// @Failure 500 {object} responses.ErrorResponse
// @Router /api/v1/conversations [post]
func (h *ConversationHandler) Create(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}

	var req requests.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, validationMessage(err), "540087fa-7eee-4ae9-a1e3-d1b2b819d41c")
		return
	}

	conv, err := h.service.CreateConversation(c.Request.Context(), user.ID, *req.Title)
	if err != nil {
		h.fail(c, err, "failed to create conversation")
		return
	}

	c.JSON(http.StatusCreated, responses.MapConversation(conv))
}

// List handles GET /api/v1/conversations
// @Summary List conversations
// @Description Lists the caller's conversations, newest first
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (default 100)"
// @Param offset query int false "Items to skip"
// @Success 200 {array} responses.ConversationResponse
// @Failure 400 {object} responses.ErrorResponse
// @Failure 401 {object} responses.ErrorResponse
// @Failure 500 {object} responses.ErrorResponse
// @Router /api/v1/conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}

	page, ok := bindPage(c)
	if !ok {
		return
	}

	items, err := h.service.ListConversations(c.Request.Context(), user.ID, page.Limit, page.Offset)
	if err != nil {
		h.fail(c, err, "failed to list conversations")
		return
	}

	c.JSON(http.StatusOK, responses.MapConversations(items))
}

// Get handles GET /api/v1/conversations/:id
// @Summary Get a conversation
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} responses.ConversationResponse
// @Failure 400 {object} responses.ErrorResponse
// @Failure 401 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /api/v1/conversations/{id} [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	id, ok := conversationID(c)
	if !ok {
		return
	}

	conv, err := h.service.GetConversation(c.Request.Context(), id, user.ID)
	if err != nil {
		h.fail(c, err, "failed to get conversation")
		return
	}
	if conv == nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeNotFound, "Conversation not found", "9e2e0ffa-6a1e-485f-a8e4-2291951724b6")
		return
	}

	c.JSON(http.StatusOK, responses.MapConversation(conv))
}

// Delete handles DELETE /api/v1/conversations/:id
// @Summary Delete a conversation
// @Description Deletes the conversation and all of its messages
// @Tags Conversations
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 204
// @Failure 400 {object} responses.ErrorResponse
// @Failure 401 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /api/v1/conversations/{id} [delete]
func (h *ConversationHandler) Delete(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	id, ok := conversationID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteConversation(c.Request.Context(), id, user.ID); err != nil {
		h.fail(c, err, "failed to delete conversation")
		return
	}

	c.Status(http.StatusNoContent)
}

// GenerateTitle handles POST /api/v1/conversations/:id/title
// @Summary Generate a conversation title
// @Description Asks the model for a short title based on the first user message and stores it
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} responses.ConversationResponse
// @Failure 400 {object} responses.ErrorResponse
// @Failure 401 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Failure 502 {object} responses.ErrorResponse
// @Router /api/v1/conversations/{id}/title [post]
func (h *ConversationHandler) GenerateTitle(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	id, ok := conversationID(c)
	if !ok {
		return
	}

	conv, err := h.service.GenerateConversationTitle(c.Request.Context(), id, user.ID)
	if err != nil {
		h.fail(c, err, "failed to generate title")
		return
	}

	c.JSON(http.StatusOK, responses.MapConversation(conv))
}

// SendMessage handles POST /api/v1/conversations/:id/messages
// @Summary Send a message
// @Description Stores the user message, generates a reply from the model and returns the stored assistant message
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param request body requests.SendMessageRequest true "Message"
// @Success 201 {object} responses.MessageResponse
// @Failure 400 {object} responses.ErrorResponse
// @Failure 401 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Failure 502 {object} responses.ErrorResponse
// @Router /api/v1/conversations/{id}/messages [post]
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	id, ok := conversationID(c)
	if !ok {
		return
	}

	var req requests.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, validationMessage(err), "33b30123-125a-49d9-91f0-47e509087bc8")
		return
	}

	reply, err := h.service.SendMessage(c.Request.Context(), id, user.ID, *req.Content)
	if err != nil {
		h.fail(c, err, "failed to send message")
		return
	}

	c.JSON(http.StatusCreated, responses.MapMessage(reply))
}

// ListMessages handles GET /api/v1/conversations/:id/messages
// @Summary List messages
// @Description Lists the messages of a conversation, oldest first
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param limit query int false "Page size (default 100)"
// @Param offset query int false "Items to skip"
// @Success 200 {array} responses.MessageResponse
// @Failure 400 {object} responses.ErrorResponse
// @Failure 401 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /api/v1/conversations/{id}/messages [get]
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	id, ok := conversationID(c)
	if !ok {
		return
	}
	page, ok := bindPage(c)
	if !ok {
		return
	}

	items, err := h.service.GetConversationMessages(c.Request.Context(), id, user.ID, page.Limit, page.Offset)
	if err != nil {
		h.fail(c, err, "failed to list messages")
		return
	}

	c.JSON(http.StatusOK, responses.MapMessages(items))
}

func (h *ConversationHandler) user(c *gin.Context) (principal.User, bool) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "Not authenticated", "298853ca-ebca-44d9-b0dc-8660d1a28321")
		return principal.User{}, false
	}
	return user, true
}

// fail logs server-side failures once and writes the error response.
func (h *ConversationHandler) fail(c *gin.Context, err error, message string) {
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		if platformerrors.ErrorTypeToHTTPStatus(platformErr.Type) >= http.StatusInternalServerError {
			platformerrors.LogError(h.log, platformErr)
		}
	} else {
		h.log.Error().Err(err).Msg(message)
	}
	_ = c.Error(err)
	responses.HandleError(c, err, message)
}

func conversationID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, fmt.Sprintf("invalid conversation id %q", raw), "0c3e25f9-bd74-4b7e-81e8-2263d5990888")
		return uuid.Nil, false
	}
	return id, true
}

func bindPage(c *gin.Context) (requests.PageQuery, bool) {
	var page requests.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, validationMessage(err), "e10c8658-52fc-41f1-bee4-ebb52f4bfeb8")
		return page, false
	}
	return page, true
}

// validationMessage turns binding failures into a client facing sentence.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Sprintf("invalid request: %v", err)
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return "invalid request: " + strings.Join(parts, "; ")
}
