package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"nutrition-diary/internal/bot"
	"nutrition-diary/internal/config"
	"nutrition-diary/internal/llm"
	"nutrition-diary/internal/nutrition"
	"nutrition-diary/internal/repository"
	"nutrition-diary/internal/server"
	"nutrition-diary/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalw("open db", "error", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	mealRepo := repository.NewMealRepository(db)

	modelClient := llm.NewClient(llm.Options{
		BaseURL: cfg.OpenAIBaseURL,
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.ModelTimeout,
	}, sugar)
	extractor := nutrition.NewExtractor(modelClient, sugar)

	diaryBot, err := bot.New(cfg.TelegramToken, userRepo, mealRepo, extractor, sugar)
	if err != nil {
		sugar.Fatalw("create bot", "error", err)
	}

	if cfg.WebhookURL != "" {
		url := strings.TrimRight(cfg.WebhookURL, "/") + "/" + cfg.WebhookSecret
		if err := diaryBot.RegisterWebhook(url); err != nil {
			sugar.Fatalw("register webhook", "error", err)
		}
	}

	if cfg.ReminderTime != "" {
		scheduler := service.NewSchedulerService(time.Local)
		if _, err := scheduler.ScheduleDaily(cfg.ReminderTime, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := diaryBot.SendDailyReminders(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				sugar.Warnw("daily reminders", "error", err)
			}
		}); err != nil {
			sugar.Fatalw("schedule reminders", "error", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	router := server.NewRouter(cfg.WebhookSecret, diaryBot, sugar)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Warnw("shutdown", "error", err)
		}
	}()

	sugar.Infow("nutrition diary bot started", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Fatalw("server stopped", "error", err)
	}
	sugar.Infow("shutdown complete")
}

func newLogger(mode string) (*zap.Logger, error) {
	switch strings.ToLower(mode) {
	case "prod", "production":
		return zap.NewProduction()
	default:
		return zap.NewDevelopment()
	}
}
