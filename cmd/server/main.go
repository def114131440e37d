package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/grupoandino/portal-approvals/internal/application/directory"
	"github.com/grupoandino/portal-approvals/internal/application/dispatcher"
	"github.com/grupoandino/portal-approvals/internal/application/service"
	"github.com/grupoandino/portal-approvals/internal/config"
	"github.com/grupoandino/portal-approvals/internal/domain/event"
	"github.com/grupoandino/portal-approvals/internal/infrastructure/external/hours"
	"github.com/grupoandino/portal-approvals/internal/infrastructure/persistence/repository"
	"github.com/grupoandino/portal-approvals/internal/infrastructure/persistence/sqlite"
	httpx "github.com/grupoandino/portal-approvals/internal/interfaces/http"
	"github.com/grupoandino/portal-approvals/pkg/database"
	"github.com/grupoandino/portal-approvals/pkg/utils"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting portal approvals service",
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	txManager := sqlite.NewDB(db.DB, logger)

	expenseRepo := repository.NewExpenseRepository(db.DB, logger)
	overtimeRepo := repository.NewOvertimeRepository(db.DB, logger)
	decisionRepo := repository.NewDecisionRepository(db.DB, logger)
	directorySource := repository.NewDirectoryRepository(db.DB, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider := directory.NewProvider(directorySource)
	if err := provider.Load(ctx); err != nil {
		logger.Fatal("Failed to load directory snapshot", zap.Error(err))
	}

	kvLogger := utils.NewKVLogger(logger)

	disp := dispatcher.New(dispatcher.WithLogger(kvLogger))
	defer disp.Close()
	disp.SubscribeNamed(event.TypeStatusChanged, "status-log", func(ctx context.Context, evt *event.Event) error {
		kvLogger.Info("Request status changed",
			"request_type", evt.RequestType, "request_id", evt.RequestID,
			"payload", evt.Payload)
		return nil
	})

	hoursClient := hours.NewClient(hours.Config{
		BaseURL: cfg.Hours.BaseURL,
		Timeout: cfg.Hours.Timeout,
	}, logger)

	expenseService := service.NewExpenseService(
		expenseRepo, decisionRepo, txManager, provider, disp, kvLogger)
	overtimeService := service.NewOvertimeService(
		overtimeRepo, decisionRepo, txManager, provider, hoursClient, disp, kvLogger)

	server := httpx.NewServer(httpx.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, expenseService, overtimeService, kvLogger)

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited")
}
