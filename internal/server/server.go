// Package server exposes the webhook, notify, health and metrics endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tb "gopkg.in/telebot.v3"

	"github.com/himarplupi/bot-himarpl/internal/dal"
	"github.com/himarplupi/bot-himarpl/internal/metrics"
	"github.com/himarplupi/bot-himarpl/internal/ratelimit"
	"github.com/himarplupi/bot-himarpl/internal/secret"
)

//go:generate mockgen -package mocks -destination mocks/server.go . MessageHandler,Dispatcher,Pinger

const (
	routeSecretToken = "secret_token"
	routeWebhook     = "webhook"
	routeNotify      = "notify"
	routeHealthz     = "healthz"
	routeOther       = "other"

	defaultShutdownTimeout = 10 * time.Second
)

type (
	MessageHandler interface {
		HandleMessage(ctx context.Context, msg *tb.Message)
	}

	Dispatcher interface {
		Dispatch(ctx context.Context, c dal.Campaign) bool
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}

	Config struct {
		Addr string

		BotToken    string
		BotUsername string
		BotSecret   string
		APIToken    string

		TrustProxyHeaders bool
		ShutdownTimeout   time.Duration
	}

	Server struct {
		// ctx outlives requests; fan-out loops started by notify run in it.
		ctx  context.Context
		conf Config

		secretToken string

		limiter    ratelimit.Limiter
		messages   MessageHandler
		dispatcher Dispatcher
		store      Pinger

		now func() time.Time
		log *slog.Logger
	}
)

func New(
	ctx context.Context,
	conf Config,
	limiter ratelimit.Limiter,
	messages MessageHandler,
	dispatcher Dispatcher,
	store Pinger,
	log *slog.Logger,
) *Server {
	if conf.ShutdownTimeout <= 0 {
		conf.ShutdownTimeout = defaultShutdownTimeout
	}

	return &Server{
		ctx:         ctx,
		conf:        conf,
		secretToken: secret.Derive(conf.BotToken, conf.BotUsername, conf.BotSecret),
		limiter:     limiter,
		messages:    messages,
		dispatcher:  dispatcher,
		store:       store,
		now:         time.Now,
		log:         log.With("component", "server"),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /telegram/secretToken", s.route(routeSecretToken, true, s.handleSecretToken))
	mux.Handle("POST /telegram/webhook", s.route(routeWebhook, true, s.handleWebhook))
	mux.Handle("POST /telegram/notify", s.route(routeNotify, true, s.handleNotify))
	for _, path := range []string{"/telegram/secretToken", "/telegram/webhook", "/telegram/notify"} {
		mux.Handle(path, s.route(routeOther, false, func(http.ResponseWriter, *http.Request) error {
			return errMethodNotAllowed
		}))
	}

	mux.Handle("GET /healthz", s.route(routeHealthz, false, s.handleHealthz))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("/", s.route(routeOther, false, func(http.ResponseWriter, *http.Request) error {
		return errNotFound
	}))

	return mux
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.conf.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,  //nolint:mnd // it's ok
		ReadTimeout:       15 * time.Second, //nolint:mnd // it's ok
		WriteTimeout:      30 * time.Second, //nolint:mnd // it's ok
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.InfoContext(ctx, "Starting HTTP server", "addr", s.conf.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen and serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.conf.ShutdownTimeout)
	defer cancel()

	s.log.InfoContext(ctx, "Stopping HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
