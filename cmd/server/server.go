package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	gormlogger "gorm.io/gorm/logger"

	"jan-server/services/chatbot-api/internal/config"
	"jan-server/services/chatbot-api/internal/domain/conversation"
	"jan-server/services/chatbot-api/internal/infrastructure/auth"
	"jan-server/services/chatbot-api/internal/infrastructure/database"
	"jan-server/services/chatbot-api/internal/infrastructure/llmprovider"
	"jan-server/services/chatbot-api/internal/infrastructure/logger"
	"jan-server/services/chatbot-api/internal/infrastructure/observability"
	"jan-server/services/chatbot-api/internal/infrastructure/postgrest"
	conversationrepo "jan-server/services/chatbot-api/internal/infrastructure/repository/conversation"
	messagerepo "jan-server/services/chatbot-api/internal/infrastructure/repository/message"
	"jan-server/services/chatbot-api/internal/interfaces/httpserver"

	_ "net/http/pprof"
)

// @title Supabase Chatbot API
// @version 0.1.0
// @description Conversation and message API backed by Supabase with LLM replies via OpenRouter
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
type Application struct {
	httpServer *httpserver.HttpServer
	pprofAddr  string
	log        zerolog.Logger
}

func NewApplication(cfg *config.Config, httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		pprofAddr:  cfg.PprofAddr,
		log:        log,
	}
}

// Start runs the API server and, when configured, the pprof listener until ctx is cancelled
// or one of them fails.
func (a *Application) Start(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	if a.pprofAddr != "" {
		pprofServer := &http.Server{Addr: a.pprofAddr, Handler: http.DefaultServeMux}
		eg.Go(func() error {
			a.log.Info().Str("addr", a.pprofAddr).Msg("pprof listening")
			err := pprofServer.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		eg.Go(func() error {
			<-ctx.Done()
			return pprofServer.Close()
		})
	}

	eg.Go(func() error {
		return a.httpServer.Run(ctx)
	})

	return eg.Wait()
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	store, closeStore, err := newStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize storage")
	}
	defer closeStore()

	generator, err := newTextGenerator(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize text generator")
	}

	conversationService := conversation.NewService(conversationRepository(store), messageRepository(store), generator, newServiceSettings(cfg), log)
	authValidator := auth.NewValidator(cfg, log)

	httpServer := httpserver.New(cfg, log, conversationService, authValidator)
	app := NewApplication(cfg, httpServer, log)

	log.Info().
		Str("storage", cfg.StorageBackend).
		Str("llm_client", cfg.LLMClient).
		Str("model", cfg.LLMModel).
		Msg("starting chatbot api")

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

// storage bundles the repositories of one backend.
type storage struct {
	conversations conversation.ConversationRepository
	messages      conversation.MessageRepository
}

func newStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, func(), error) {
	switch cfg.StorageBackend {
	case config.StorageREST:
		client := postgrest.NewClient(cfg.SupabaseURL, cfg.SupabaseKey, cfg.RESTTimeout)
		return &storage{
			conversations: conversationrepo.NewPostgRESTRepository(client),
			messages:      messagerepo.NewPostgRESTRepository(client),
		}, func() {}, nil

	case config.StoragePostgres, config.StorageSQLite:
		db, err := database.Connect(newDatabaseConfig(cfg))
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		cleanup := func() {
			if err := database.Close(db); err != nil {
				log.Error().Err(err).Msg("close database")
			}
		}
		if cfg.AutoMigrate {
			if err := database.Migrate(ctx, db, log); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("migrate database: %w", err)
			}
		}
		return &storage{
			conversations: conversationrepo.NewGormRepository(db),
			messages:      messagerepo.NewGormRepository(db),
		}, cleanup, nil

	case config.StorageMemory:
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		return &storage{
			conversations: conversationrepo.NewInMemoryRepository(),
			messages:      messagerepo.NewInMemoryRepository(),
		}, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	dbCfg := database.Config{
		Driver:          database.DriverPostgres,
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
	if cfg.StorageBackend == config.StorageSQLite {
		dbCfg.Driver = database.DriverSQLite
		dbCfg.DSN = cfg.SQLitePath
	}
	if cfg.Debug {
		dbCfg.LogLevel = gormlogger.Info
	}
	return dbCfg
}

func newTextGenerator(cfg *config.Config, log zerolog.Logger) (conversation.TextGenerator, error) {
	settings := llmprovider.Settings{
		BaseURL:     cfg.OpenRouterBaseURL,
		APIKey:      cfg.OpenRouterAPIKey,
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		Timeout:     cfg.LLMTimeout,
	}
	if cfg.LLMClient == config.LLMClientLangChain {
		return llmprovider.NewLangChainClient(settings, log)
	}
	return llmprovider.NewChatCompletionClient(settings, log), nil
}

func newServiceSettings(cfg *config.Config) conversation.Settings {
	return conversation.Settings{MaxHistoryMessages: cfg.MaxHistoryItems}
}

func conversationRepository(s *storage) conversation.ConversationRepository {
	return s.conversations
}

func messageRepository(s *storage) conversation.MessageRepository {
	return s.messages
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
