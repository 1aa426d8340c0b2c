package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"campusstay_echo/internal/config"
	applog "campusstay_echo/internal/logger"
	"campusstay_echo/internal/services"
	"campusstay_echo/internal/tasks"
)

func main() {
	applog.Init("worker")
	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		applog.Log.Fatal("DATABASE_URL not set")
	}

	db, err := services.InitDB(cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		applog.Log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := tasks.EnsureRecurringTasks(db, time.Now().UTC()); err != nil {
		applog.Log.Warnf("Failed to seed recurring tasks: %v", err)
	}

	notifier := services.NewNotifier(db, services.NotificationSettings{
		AppURL:    cfg.AppURL,
		InviteTTL: cfg.InviteTokenTTL,
	}, services.NewEmailSender(cfg), whatsappSender(cfg), smsSender(cfg))

	registry := tasks.NewRegistry()
	tasks.DefineTasks(registry, notifier)
	runner := tasks.NewRunner(db, registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(applog.Log))))
	if _, err := c.AddFunc(cfg.WorkerSchedule, func() { runner.ProcessDue(ctx) }); err != nil {
		applog.Log.Fatalf("Invalid WORKER_SCHEDULE %q: %v", cfg.WorkerSchedule, err)
	}

	// Run once on start so due tasks don't wait for the first tick
	runner.ProcessDue(ctx)
	c.Start()
	applog.Log.Infof("Worker started with schedule %s", cfg.WorkerSchedule)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	applog.Log.Info("Shutting down worker...")
	cancel()
	<-c.Stop().Done()
}

func whatsappSender(cfg *config.Config) services.WhatsappSender {
	if cfg.WahaAPIKey == "" {
		return nil
	}
	return services.NewWahaService(cfg.WahaBaseURL, cfg.WahaAPIKey)
}

func smsSender(cfg *config.Config) services.SMSSender {
	if cfg.TwilioAccountSID == "" {
		return nil
	}
	return services.NewTwilioService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromPhone)
}
