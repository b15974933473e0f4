package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/himarplupi/bot-himarpl/internal/config"
	"github.com/himarplupi/bot-himarpl/internal/dal"
	"github.com/himarplupi/bot-himarpl/internal/ratelimit"
	"github.com/himarplupi/bot-himarpl/internal/server"
	"github.com/himarplupi/bot-himarpl/internal/service"
	"github.com/himarplupi/bot-himarpl/internal/telegram"
	"github.com/himarplupi/bot-himarpl/pkg/clock"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	os.Exit(run(ctx))
}

func run(ctx context.Context) int {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	conf, err := config.Load(ctx)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		return 1
	}

	log := mustLogger(conf.Dev)

	if err := conf.Validate(); err != nil {
		log.Error("Invalid config", "error", err)
		return 1
	}

	responses, err := telegram.LoadResponses(conf.ResponsesPath)
	if err != nil {
		log.Error("Failed to load responses", "error", err)
		return 1
	}

	dsn := conf.DatabaseURL
	if conf.Storage == dal.BackendBolt {
		dsn = conf.DBPath
	}
	store, err := dal.Open(ctx, conf.Storage, dsn, log)
	if err != nil {
		log.Error("Failed to open database", "error", err)
		return 1
	}
	defer store.Close()

	limiter, err := newLimiter(conf, store, log)
	if err != nil {
		log.Error("Failed to create rate limiter", "error", err)
		return 1
	}

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:  conf.TelegramBotToken,
		APIURL: conf.TelegramBotAPIURL,
	}, log)
	if err != nil {
		log.Error("Failed to create telegram bot", "error", err)
		return 1
	}

	clk := clock.New()
	subscriptionsSvc := service.NewSubscriptions(store, clk, log)
	messenger := telegram.NewMessenger(bot.Client(), responses.ParseMode(), log)
	messenger.OnUnreachable(subscriptionsSvc.Purge)

	notificationsSvc := service.NewNotifications(store, messenger, responses, clk, conf.Notifications(), log)
	resumer := service.NewResumer(store, notificationsSvc, conf.ResumeSchedule, log)
	handler := telegram.NewHandler(subscriptionsSvc, messenger, responses, log)

	srv := server.New(ctx, server.Config{
		Addr:              conf.HTTPAddr,
		BotToken:          conf.TelegramBotToken,
		BotUsername:       conf.TelegramBotUsername,
		BotSecret:         conf.TelegramBotSecret,
		APIToken:          conf.APIToken,
		TrustProxyHeaders: conf.TrustProxyHeaders,
	}, limiter, handler, notificationsSvc, store, log)

	wg := &sync.WaitGroup{}
	wg.Go(func() {
		if err := resumer.Start(ctx); err != nil {
			log.Error("Failed to start resumer", "error", err)
		}
	})

	exitCode := 0
	if err := srv.ListenAndServe(ctx); err != nil {
		log.Error("HTTP server failed", "error", err)
		exitCode = 1
		stop()
	}

	log.Info("Waiting for running campaigns")
	wg.Wait()
	notificationsSvc.Wait()
	log.Info("Stopped bot")
	return exitCode
}

func newLimiter(conf *config.Config, store dal.Store, log *slog.Logger) (ratelimit.Limiter, error) {
	switch conf.RateLimitBackend {
	case ratelimit.BackendPostgres:
		pg, ok := store.(*dal.Postgres)
		if !ok {
			return nil, errors.New("postgres rate limiter requires postgres storage")
		}
		return ratelimit.NewPostgres(pg.Pool(), conf.RateLimit(), log), nil
	default:
		return ratelimit.NewLocal(conf.RateLimit()), nil
	}
}

func mustLogger(dev bool) *slog.Logger {
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})

	if dev {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	return slog.New(handler)
}
