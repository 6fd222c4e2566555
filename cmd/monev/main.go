package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "time/tzdata"

	"github.com/creativealip-rgb/Monev-sub001/internal/app"
	"github.com/creativealip-rgb/Monev-sub001/internal/config"
	"github.com/creativealip-rgb/Monev-sub001/internal/handler"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/amqp"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/observability"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/resilience"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/telegram"
	"github.com/creativealip-rgb/Monev-sub001/internal/port"
	"github.com/creativealip-rgb/Monev-sub001/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

func main() {
	// --- Load .env file (for local development) ---
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("data_backend", cfg.DataBackend),
		zap.String("timezone", cfg.Timezone),
		zap.Bool("telegram_enabled", cfg.TelegramEnabled),
		zap.Bool("amqp_enabled", cfg.AMQPURL != ""),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("ai_timeout", cfg.AITimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Int("detection_window_months", cfg.DetectionWindowMonths),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "monev")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	ctx := context.Background()

	// --- Telegram ---
	var teleBot *tele.Bot
	if cfg.TelegramBotToken != "" {
		teleBot, err = telegram.NewTeleBot(cfg.TelegramBotToken, cfg.TelegramPollTimeout)
		if err != nil {
			logger.Fatal("failed to create telegram bot", zap.Error(err))
		}
	}

	// --- Broadcast path: queue when configured, otherwise direct ---
	var broadcaster port.Broadcaster
	switch {
	case cfg.AMQPURL != "":
		queue, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Fatal("failed to connect to AMQP", zap.Error(err))
		}
		defer queue.Close()
		broadcaster = queue
		logger.Info("notifications queued over AMQP", zap.String("queue", cfg.AMQPQueue))
	case teleBot != nil:
		notifier := telegram.NewNotifier(teleBot, resilience.NewCircuitBreaker("telegram"), resilience.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
		}, cfg.HTTPTimeout, logger)
		broadcaster = service.NewDispatcher(notifier, metrics, logger)
	default:
		logger.Warn("no Telegram token or AMQP URL: notifications are logged only")
		broadcaster = service.NewDispatcher(app.DryRunNotifier{Logger: logger}, metrics, logger)
	}

	// --- Services ---
	a, err := app.New(ctx, cfg, broadcaster, metrics, logger)
	if err != nil {
		logger.Fatal("failed to build services", zap.Error(err))
	}
	defer a.Close()

	// --- Chat bot ---
	var bot *telegram.Bot
	if cfg.TelegramEnabled && teleBot != nil {
		loc, _ := time.LoadLocation(cfg.Timezone)
		flows := telegram.NewFlows(a.Settings, a.Ingest, a.Analytics, loc, logger)
		bot = telegram.NewBot(teleBot, flows, cfg.AITimeout+10*time.Second, logger)
		go bot.Start()
	}

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Auth:          a.Auth,
		Transactions:  a.Transactions,
		Categories:    a.Categories,
		Budgets:       a.Budgets,
		Goals:         a.Goals,
		Bills:         a.Bills,
		Investments:   a.Investments,
		Settings:      a.Settings,
		Analytics:     a.Analytics,
		Dashboard:     a.Dashboard,
		Ingest:        a.Ingest,
		Subscriptions: a.Subscriptions,
		Store:         a.Store,
	}, handler.Options{
		CronSecret:     cfg.CronSecret,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.AITimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	if bot != nil {
		bot.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
