package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/avara-hq/avara-backend/internal/api"
	agentsapi "github.com/avara-hq/avara-backend/internal/api/agents"
	chatapi "github.com/avara-hq/avara-backend/internal/api/chat"
	researchapi "github.com/avara-hq/avara-backend/internal/api/research"
	"github.com/avara-hq/avara-backend/internal/config"
	agentsconn "github.com/avara-hq/avara-backend/internal/integration/agents"
	"github.com/avara-hq/avara-backend/internal/integration/insights"
	"github.com/avara-hq/avara-backend/internal/integration/synthesis"
	"github.com/avara-hq/avara-backend/internal/pkg/validator"
	"github.com/avara-hq/avara-backend/internal/repository"
	agentsuc "github.com/avara-hq/avara-backend/internal/usecase/agents"
	chatuc "github.com/avara-hq/avara-backend/internal/usecase/chat"
	researchuc "github.com/avara-hq/avara-backend/internal/usecase/research"
	"go.uber.org/zap"
)

// synthProvider is the full surface both mock and real synthesis
// connectors implement.
type synthProvider interface {
	researchuc.SynthConnector
	agentsuc.SynthConnector
	chatuc.SynthConnector
}

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize repositories
	researchRepo := repository.NewResearchPostgres(db)
	contextRepo := repository.NewContextPostgres(db)
	projectRepo := repository.NewProjectPostgres(db)
	coreBusinessRepo := repository.NewCoreBusinessPostgres(db)
	riskRepo := repository.NewRiskPostgres(db)
	roadmapRepo := repository.NewRoadmapPostgres(db)
	taskRepo := repository.NewTaskPostgres(db)
	logger.Info("Repositories initialized")

	// Initialize external service connectors (with mock support)
	var synthConnector synthProvider
	var insightsConnector researchuc.InsightsConnector

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		synthConnector = synthesis.NewMockConnector(logger)
		insightsConnector = insights.NewMockConnector(logger)
	} else {
		logger.Info("Using real connectors for external services")
		synthConnector = synthesis.NewConnector(cfg.SynthConnectorCfg, logger)
		insightsConnector = insights.NewConnector(cfg.InsightsConnectorCfg, logger)
	}

	agentsConnector := agentsconn.NewConnector(cfg.AgentsConnectorCfg, cfg.AuthCfg, logger)

	// Initialize validators
	v := validator.New()
	logger.Info("Validators initialized")

	// Initialize use cases
	researchUC := researchuc.NewUsecase(
		researchRepo,
		contextRepo,
		projectRepo,
		v,
		synthConnector,
		insightsConnector,
		agentsConnector,
		cfg.ClarifyingQuestions,
		logger,
	)

	agentsUC := agentsuc.NewUsecase(
		researchRepo,
		coreBusinessRepo,
		riskRepo,
		roadmapRepo,
		taskRepo,
		v,
		synthConnector,
		cfg.DocCacheTTL,
		logger,
	)

	chatUC := chatuc.NewUsecase(
		researchRepo,
		contextRepo,
		v,
		synthConnector,
		logger,
	)
	logger.Info("Use cases initialized")

	// Setup API handlers
	researchHandler := researchapi.NewHandler(researchUC)
	agentsHandler := agentsapi.NewHandler(agentsUC)
	chatHandler := chatapi.NewHandler(chatUC)
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(researchHandler, agentsHandler, chatHandler, cfg.AuthCfg, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		db:     db,
		logger: logger,
	}, nil
}
