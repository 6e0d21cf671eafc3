//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"jan-server/services/chatbot-api/internal/config"
	"jan-server/services/chatbot-api/internal/domain/conversation"
	"jan-server/services/chatbot-api/internal/infrastructure/auth"
	"jan-server/services/chatbot-api/internal/infrastructure/logger"
	"jan-server/services/chatbot-api/internal/interfaces/httpserver"
)

var conversationSet = wire.NewSet(
	newStorage,
	conversationRepository,
	messageRepository,
	newTextGenerator,
	newServiceSettings,
	conversation.NewService,
)

// BuildApplication assembles the chatbot service with Wire.
func BuildApplication(ctx context.Context) (*Application, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		conversationSet,
		auth.NewValidator,
		httpserver.New,
		NewApplication,
	)
	return nil, nil, nil
}
