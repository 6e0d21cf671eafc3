package routes

import (
	"github.com/gin-gonic/gin"

	"jan-server/services/chatbot-api/internal/interfaces/httpserver/handlers"
	v1 "jan-server/services/chatbot-api/internal/interfaces/httpserver/routes/v1"
)

// Provider coordinates all route registrations.
type Provider struct {
	V1 *v1.Routes
}

// NewProvider constructs the route provider. authMiddleware guards every versioned route.
func NewProvider(handlerProvider *handlers.Provider, authMiddleware gin.HandlerFunc) *Provider {
	return &Provider{
		V1: v1.NewRoutes(handlerProvider, authMiddleware),
	}
}

// Register attaches all available routes to the gin engine.
func (p *Provider) Register(engine *gin.Engine) {
	p.V1.Register(engine)
}
