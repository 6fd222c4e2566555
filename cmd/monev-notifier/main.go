// Command monev-notifier drains the notification queue and delivers each
// message to Telegram.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "time/tzdata"

	"github.com/creativealip-rgb/Monev-sub001/internal/config"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/amqp"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/observability"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/resilience"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/telegram"
	"github.com/creativealip-rgb/Monev-sub001/internal/service"

	"go.uber.org/zap"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	cfg := config.Load()

	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if cfg.AMQPURL == "" || cfg.TelegramBotToken == "" {
		logger.Fatal("monev-notifier needs AMQP_URL and TELEGRAM_BOT_TOKEN")
	}

	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "monev-notifier")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	metrics := observability.NewMetrics()

	bot, err := telegram.NewTeleBot(cfg.TelegramBotToken, cfg.TelegramPollTimeout)
	if err != nil {
		logger.Fatal("failed to create telegram bot", zap.Error(err))
	}
	notifier := telegram.NewNotifier(bot, resilience.NewCircuitBreaker("telegram"), resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
	}, cfg.HTTPTimeout, logger)
	dispatcher := service.NewDispatcher(notifier, metrics, logger)

	queue, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Fatal("failed to connect to AMQP", zap.Error(err))
	}
	defer queue.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("notifier started", zap.String("queue", cfg.AMQPQueue))
	if err := queue.Consume(ctx, cfg.NotifyConcurrency, dispatcher.Publish); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", zap.Error(err))
		return
	}
	logger.Info("notifier stopped")
}
