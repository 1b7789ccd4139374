package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/alfredang/iamgood/internal/api"
	"github.com/alfredang/iamgood/internal/config"
	"github.com/alfredang/iamgood/internal/handlers"
	"github.com/alfredang/iamgood/internal/models"
	"github.com/alfredang/iamgood/internal/notify"
	"github.com/alfredang/iamgood/internal/repository/postgres"
	"github.com/alfredang/iamgood/internal/service"
	"github.com/alfredang/iamgood/internal/telegram"
	"github.com/alfredang/iamgood/pkg/logger"
)

func main() {
	// Optional .env file for local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel)
	l.Info("Starting safety check-in service...")

	loc, err := cfg.Location()
	if err != nil {
		l.Fatalf("Failed to resolve timezone: %v", err)
	}

	// Database
	db, err := config.NewDatabase(cfg.DatabaseURL, l)
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate("migrations"); err != nil {
		l.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db.DB)
	scheduleRepo := postgres.NewScheduleRepository(db.DB)
	checkInRepo := postgres.NewCheckInRepository(db.DB)
	contactRepo := postgres.NewContactRepository(db.DB)
	alertLogRepo := postgres.NewAlertLogRepository(db.DB)

	// Alert transport
	var transport notify.Transport
	if cfg.ResendAPIKey != "" {
		transport = notify.NewMailer(cfg.ResendAPIKey, cfg.AlertFrom, cfg.SendTimeout)
	} else {
		transport = notify.Disabled()
		l.Warn("RESEND_API_KEY is not set; alert attempts will be recorded as failed")
	}

	// Service layer
	svc := service.New(db.DB, l, loc, transport,
		userRepo, scheduleRepo, checkInRepo, contactRepo, alertLogRepo,
	)
	if cfg.SMSGatewayDomain != "" {
		svc.SetSMSGateway(cfg.SMSGatewayDomain)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	// Telegram bot (optional check-in channel)
	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, l)
		if err != nil {
			l.Fatalf("Failed to create Telegram bot: %v", err)
		}

		bot.RegisterCommand("start", handlers.NewStartHandler(svc, l))
		bot.RegisterCommand("help", handlers.NewHelpHandler(l))
		bot.RegisterCommand("imok", handlers.NewCheckInHandler(svc, l, models.HealthTagOkay))
		bot.RegisterCommand("unwell", handlers.NewCheckInHandler(svc, l, models.HealthTagUnwell))
		bot.RegisterCommand("needtalk", handlers.NewCheckInHandler(svc, l, models.HealthTagNeedTalk))
		bot.RegisterCommand("status", handlers.NewStatusHandler(svc, l))
		bot.RegisterCommand("contacts", handlers.NewContactsHandler(svc, l))

		if cfg.TelegramOpsChatID != 0 {
			svc.SetOpsNotifier(notify.NewOpsNotifier(bot.API(), cfg.TelegramOpsChatID))
		}

		go func() {
			if err := bot.Start(ctx); err != nil {
				l.Errorf("Bot error: %v", err)
			}
		}()
	} else {
		l.Info("TELEGRAM_TOKEN is not set; Telegram check-in channel disabled")
	}

	// Start overdue monitor
	go svc.StartMonitor(ctx, cfg.CheckInterval)

	// Start HTTP server
	apiServer := api.NewServer(svc, l, cfg.CronSecret)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: apiServer.Handler(),
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("HTTP server error: %v", err)
		}
	}()

	l.Info("Safety check-in service started successfully")

	<-ctx.Done()

	l.Info("Shutting down HTTP server...")
	httpServer.Close()

	l.Info("Safety check-in service stopped")
}
