package v1

import (
	"github.com/gin-gonic/gin"

	"jan-server/services/chatbot-api/internal/interfaces/httpserver/handlers"
)

func registerConversationRoutes(router gin.IRoutes, handler *handlers.ConversationHandler) {
	router.POST("/conversations", handler.Create)
	router.GET("/conversations", handler.List)
	router.GET("/conversations/:id", handler.Get)
	router.DELETE("/conversations/:id", handler.Delete)
	router.POST("/conversations/:id/title", handler.GenerateTitle)
	router.POST("/conversations/:id/messages", handler.SendMessage)
	router.GET("/conversations/:id/messages", handler.ListMessages)
}
