package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/mcastellanos/procadena/internal/config"
	"github.com/mcastellanos/procadena/internal/email"
	"github.com/mcastellanos/procadena/internal/repository/postgres"
	notificationService "github.com/mcastellanos/procadena/internal/service/notification"
	"github.com/mcastellanos/procadena/internal/whatsapp"
	"github.com/mcastellanos/procadena/internal/worker"
	"github.com/mcastellanos/procadena/pkg/logger"
	"github.com/mcastellanos/procadena/pkg/messaging/redis"
	"github.com/mcastellanos/procadena/pkg/metrics"
	queueworker "github.com/mcastellanos/procadena/pkg/worker"
)

// overrides are environment knobs that take precedence over the config
// file, so deployments can tune the worker without shipping a new yaml.
type overrides struct {
	BatchSize           int `envconfig:"QUEUE_BATCH_SIZE"`
	PollIntervalSeconds int `envconfig:"QUEUE_POLL_INTERVAL_SECONDS"`
	RetentionDays       int `envconfig:"NOTIFICATION_RETENTION_DAYS"`
}

func setupHealthCheck(appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			appLogger.Error(err, "Health check server failed")
			os.Exit(1)
		}
	}()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	var env overrides
	if err := envconfig.Process("worker", &env); err != nil {
		log.Fatal().Err(err).Msg("failed to read environment overrides")
	}
	if env.BatchSize > 0 {
		cfg.Queue.BatchSize = env.BatchSize
	}
	if env.PollIntervalSeconds > 0 {
		cfg.Queue.PollIntervalSeconds = env.PollIntervalSeconds
	}
	retentionDays := worker.DefaultRetentionDays
	if env.RetentionDays > 0 {
		retentionDays = env.RetentionDays
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

	notifSvc := notificationService.NewService(
		postgres.NewNotificationRepository(db),
		postgres.NewTemplateRepository(db),
		postgres.NewPreferenceRepository(db),
		postgres.NewUserRepository(db),
		email.NewSender(cfg.SMTP),
		whatsapp.NewSender(cfg.WhatsApp),
		broker,
		metrics.New("procadena_worker"),
		appLogger,
	)

	processor := queueworker.NewQueueProcessor(notifSvc, queueworker.QueueProcessorConfig{
		BatchSize:    cfg.Queue.BatchSize,
		PollInterval: cfg.Queue.PollInterval(),
	}, appLogger)

	reminders := worker.NewReminders(
		postgres.NewTaskRepository(db),
		postgres.NewWorkshopRepository(db),
		notifSvc,
		appLogger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := cron.New()
	mustSchedule(scheduler, "0 7 * * *", func() {
		if err := reminders.RunTaskReminders(ctx); err != nil {
			appLogger.Error(err, "Task reminder run failed")
		}
	})
	mustSchedule(scheduler, "30 7 * * *", func() {
		if err := reminders.RunWorkshopReminders(ctx); err != nil {
			appLogger.Error(err, "Workshop reminder run failed")
		}
	})
	mustSchedule(scheduler, "0 3 * * *", func() {
		if err := reminders.RunPurge(ctx, retentionDays); err != nil {
			appLogger.Error(err, "Notification purge failed")
		}
	})
	scheduler.Start()

	setupHealthCheck(appLogger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		appLogger.Info("Shutting down...")
		cancel()
	}()

	processor.Start(ctx)

	// Let in-flight cron jobs finish before the process exits.
	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(10 * time.Second):
	}
}

func mustSchedule(c *cron.Cron, spec string, job func()) {
	if _, err := c.AddFunc(spec, job); err != nil {
		log.Fatal().Err(err).Str("spec", spec).Msg("invalid cron schedule")
	}
}
