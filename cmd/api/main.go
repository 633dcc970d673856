package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/mcastellanos/procadena/internal/config"
	"github.com/mcastellanos/procadena/internal/email"
	"github.com/mcastellanos/procadena/internal/handler"
	anchorHandler "github.com/mcastellanos/procadena/internal/handler/anchor"
	authHandler "github.com/mcastellanos/procadena/internal/handler/auth"
	notificationHandler "github.com/mcastellanos/procadena/internal/handler/notification"
	participationHandler "github.com/mcastellanos/procadena/internal/handler/participation"
	projectHandler "github.com/mcastellanos/procadena/internal/handler/project"
	supplierHandler "github.com/mcastellanos/procadena/internal/handler/supplier"
	workshopHandler "github.com/mcastellanos/procadena/internal/handler/workshop"
	"github.com/mcastellanos/procadena/internal/middleware"
	"github.com/mcastellanos/procadena/internal/repository/postgres"
	"github.com/mcastellanos/procadena/internal/router"
	anchorService "github.com/mcastellanos/procadena/internal/service/anchor"
	authService "github.com/mcastellanos/procadena/internal/service/auth"
	kpiService "github.com/mcastellanos/procadena/internal/service/kpi"
	notificationService "github.com/mcastellanos/procadena/internal/service/notification"
	projectService "github.com/mcastellanos/procadena/internal/service/project"
	stageService "github.com/mcastellanos/procadena/internal/service/stage"
	supplierService "github.com/mcastellanos/procadena/internal/service/supplier"
	workshopService "github.com/mcastellanos/procadena/internal/service/workshop"
	"github.com/mcastellanos/procadena/internal/whatsapp"
	"github.com/mcastellanos/procadena/pkg/auth"
	"github.com/mcastellanos/procadena/pkg/logger"
	"github.com/mcastellanos/procadena/pkg/messaging/redis"
	"github.com/mcastellanos/procadena/pkg/metrics"
	"github.com/mcastellanos/procadena/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(cfg.ToBrokerConfig(), &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer broker.Close()

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	anchorRepo := postgres.NewAnchorRepository(db)
	supplierRepo := postgres.NewSupplierRepository(db)
	projectRepo := postgres.NewProjectRepository(db)
	participationRepo := postgres.NewParticipationRepository(db)
	stageRepo := postgres.NewStageRepository(db)
	taskRepo := postgres.NewTaskRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	kpiRepo := postgres.NewKPIRepository(db)
	workshopRepo := postgres.NewWorkshopRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	templateRepo := postgres.NewTemplateRepository(db)
	preferenceRepo := postgres.NewPreferenceRepository(db)

	// Services
	notifSvc := notificationService.NewService(
		notificationRepo,
		templateRepo,
		preferenceRepo,
		userRepo,
		email.NewSender(cfg.SMTP),
		whatsapp.NewSender(cfg.WhatsApp),
		broker,
		metrics.New("procadena_api"),
		appLogger,
	)
	stageSvc := stageService.NewService(participationRepo, stageRepo, taskRepo, sessionRepo, supplierRepo, notifSvc, appLogger)
	projectSvc := projectService.NewService(projectRepo, participationRepo, supplierRepo, anchorRepo, notifSvc, appLogger)
	supplierSvc := supplierService.NewService(supplierRepo, anchorRepo)
	anchorSvc := anchorService.NewService(anchorRepo)
	workshopSvc := workshopService.NewService(workshopRepo, notifSvc)
	kpiSvc := kpiService.NewService(kpiRepo, stageRepo, supplierRepo, notifSvc, appLogger)

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	hasher := security.NewBcryptHasher(0)
	authSvc := authService.NewService(userRepo, jwtSvc, hasher, notifSvc, appLogger)

	// HTTP layer
	authMw := middleware.NewAuthMiddleware(jwtSvc)
	r := router.New(
		authMw,
		handler.NewHealthHandler(db),
		authHandler.NewHandler(authSvc),
		anchorHandler.NewHandler(anchorSvc, supplierSvc),
		supplierHandler.NewHandler(supplierSvc),
		projectHandler.NewHandler(projectSvc),
		participationHandler.NewHandler(stageSvc, projectSvc, kpiSvc),
		workshopHandler.NewHandler(workshopSvc),
		notificationHandler.NewHandler(notifSvc, preferenceRepo),
		router.Config{
			RateLimit: rate.Limit(100),
			RateBurst: 200,
		},
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		appLogger.Info("starting api server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info("server exited properly")
}
