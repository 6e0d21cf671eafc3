package v1

import (
	"github.com/gin-gonic/gin"

	"jan-server/services/chatbot-api/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
	auth     gin.HandlerFunc
}

// NewRoutes builds the v1 route registrar.
func NewRoutes(handlerProvider *handlers.Provider, authMiddleware gin.HandlerFunc) *Routes {
	return &Routes{
		handlers: handlerProvider,
		auth:     authMiddleware,
	}
}

// Register attaches all v1 routes under /api/v1 prefix.
func (r *Routes) Register(engine *gin.Engine) {
	group := engine.Group("/api/v1")
	if r.auth != nil {
		group.Use(r.auth)
	}
	registerConversationRoutes(group, r.handlers.Conversation)
}
