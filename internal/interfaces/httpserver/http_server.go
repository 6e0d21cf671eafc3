package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	chatbotapidocs "jan-server/services/chatbot-api/docs/swagger"
	"jan-server/services/chatbot-api/internal/config"
	"jan-server/services/chatbot-api/internal/domain/conversation"
	"jan-server/services/chatbot-api/internal/infrastructure/auth"
	"jan-server/services/chatbot-api/internal/infrastructure/observability"
	"jan-server/services/chatbot-api/internal/interfaces/httpserver/handlers"
	"jan-server/services/chatbot-api/internal/interfaces/httpserver/middlewares"
	"jan-server/services/chatbot-api/internal/interfaces/httpserver/responses"
	"jan-server/services/chatbot-api/internal/interfaces/httpserver/routes"
)

// HttpServer wraps the gin engine with graceful shutdown helpers.
type HttpServer struct {
	cfg         *config.Config
	engine      *gin.Engine
	log         zerolog.Logger
	handlerProv *handlers.Provider
	routeProv   *routes.Provider
}

// New constructs the HTTP server with default middleware and routes.
func New(cfg *config.Config, log zerolog.Logger, conversationService conversation.Service, authValidator *auth.Validator) *HttpServer {
	switch {
	case cfg.Debug:
		gin.SetMode(gin.DebugMode)
	case cfg.IsProduction():
		gin.SetMode(gin.ReleaseMode)
	}
	chatbotapidocs.SwaggerInfo.BasePath = "/"

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middlewares.RequestID())
	if cfg.EnableTracing {
		engine.Use(middlewares.TracingMiddleware(cfg.ServiceName))
	}
	engine.Use(middlewares.LoggingMiddleware(log))
	if cfg.EnableMetrics {
		engine.Use(middlewares.MetricsMiddleware())
	}
	engine.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	engine.Use(middlewares.RequestTimeout(cfg.RequestTimeout))

	var authMiddleware gin.HandlerFunc
	if authValidator != nil {
		authMiddleware = authValidator.Middleware()
	}

	handlerProvider := handlers.NewProvider(conversationService, log)
	routeProvider := routes.NewProvider(handlerProvider, authMiddleware)
	registerCoreRoutes(engine, cfg, routeProvider)

	return &HttpServer{
		cfg:         cfg,
		engine:      engine,
		log:         log,
		handlerProv: handlerProvider,
		routeProv:   routeProvider,
	}
}

// Handler exposes the engine, mainly for tests.
func (s *HttpServer) Handler() http.Handler {
	return s.engine
}

// Run starts the HTTP listener and handles graceful shutdown via context cancellation.
func (s *HttpServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr()).Msg("HTTP server listening")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("HTTP server error")
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("Context cancelled, shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func registerCoreRoutes(engine *gin.Engine, cfg *config.Config, routeProvider *routes.Provider) {
	engine.GET("/", root)
	engine.GET("/health", health)

	engine.GET("/readyz", func(c *gin.Context) {
		c.JSON(http.StatusOK, responses.StatusResponse{Status: "ready"})
	})

	if cfg.EnableMetrics {
		engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	if cfg.EnableSwagger {
		engine.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	routeProvider.Register(engine)
}

// root godoc
// @Summary      Service banner
// @Tags         System
// @Produce      json
// @Success      200  {object}  responses.RootResponse
// @Router       / [get]
func root(c *gin.Context) {
	c.JSON(http.StatusOK, responses.RootResponse{
		Message: "Welcome to Supabase Chatbot API",
		Docs:    "/docs",
		Version: observability.ServiceVersion,
	})
}

// health godoc
// @Summary      Liveness probe
// @Tags         System
// @Produce      json
// @Success      200  {object}  responses.StatusResponse
// @Router       /health [get]
func health(c *gin.Context) {
	c.JSON(http.StatusOK, responses.StatusResponse{Status: "healthy"})
}
