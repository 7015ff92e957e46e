package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/benchmarksales/ai-outbound-backend/api/routes"
	"github.com/benchmarksales/ai-outbound-backend/internal/config"
	"github.com/benchmarksales/ai-outbound-backend/internal/handlers"
	"github.com/benchmarksales/ai-outbound-backend/internal/repositories"
	mongorepo "github.com/benchmarksales/ai-outbound-backend/internal/repositories/mongodb"
	"github.com/benchmarksales/ai-outbound-backend/internal/scheduler"
	"github.com/benchmarksales/ai-outbound-backend/internal/services"
	"github.com/benchmarksales/ai-outbound-backend/pkg/benchmarkapi"
	"github.com/benchmarksales/ai-outbound-backend/pkg/mailer"
	"github.com/benchmarksales/ai-outbound-backend/pkg/mongodb"
	"github.com/benchmarksales/ai-outbound-backend/pkg/retell"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	mongoClient, err := mongodb.NewClient(ctx, cfg.MongoDB.URI)
	cancel()
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			slog.Error("Error disconnecting from MongoDB", "error", err)
		}
	}()
	db := mongoClient.Database(cfg.MongoDB.Database)

	// Repositories
	var prospectRepo repositories.ProspectRepository = mongorepo.NewProspectRepository(db)
	var campaignRepo repositories.CampaignRepository = mongorepo.NewCampaignRepository(db)
	var userRepo repositories.UserRepository = mongorepo.NewUserRepository(db)

	// Outbound integrations
	gateway := retell.NewGateway(cfg)
	schedulingClient := benchmarkapi.NewClient(cfg)
	var sender mailer.Sender = &mailer.NoopMailer{}
	if cfg.SMTP.Host != "" {
		sender = mailer.New(cfg)
	} else {
		slog.Warn("SMTP is not configured, outgoing mail will be discarded")
	}

	// Services
	reportSvc := services.NewReportService(sender, cfg)
	dispatchSvc := services.NewDispatchService(prospectRepo, gateway, cfg)
	reconcileSvc := services.NewReconcileService(prospectRepo, reportSvc, cfg)
	prospectSvc := services.NewProspectService(prospectRepo, campaignRepo, dispatchSvc, reportSvc)
	campaignSvc := services.NewCampaignService(campaignRepo, prospectRepo)
	bookingSvc := services.NewBookingService(campaignRepo, userRepo, prospectRepo, schedulingClient, sender)
	userSvc := services.NewUserService(userRepo, cfg)

	// Handlers
	handlerDeps := &routes.HandlerDependencies{
		AuthHandler:     handlers.NewAuthHandler(userSvc),
		ProspectHandler: handlers.NewProspectHandler(prospectSvc),
		CampaignHandler: handlers.NewCampaignHandler(campaignSvc),
		BookingHandler:  handlers.NewBookingHandler(bookingSvc),
		WebhookHandler:  handlers.NewWebhookHandler(reconcileSvc),
	}
	router := routes.SetupRouter(cfg, handlerDeps)

	// Background call scheduler
	var callScheduler *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		callScheduler = scheduler.New(prospectRepo, dispatchSvc, cfg)
		if err := callScheduler.Start(); err != nil {
			slog.Error("Failed to start call scheduler", "error", err)
			os.Exit(1)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server")

	if callScheduler != nil {
		callScheduler.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	slog.Info("Server exited")
}

func setupLogger(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}
