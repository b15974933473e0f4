package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/himarplupi/bot-himarpl/internal/metrics"
	"github.com/himarplupi/bot-himarpl/internal/ratelimit"
)

const RequestIDHeader = "X-Request-ID"

// handlerFunc is a route body. Returned errors are written by route: an
// *apiError keeps its status, anything else is a 500.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

type loggerKey struct{}

func withLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, log)
}

func (s *Server) logger(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return log
	}
	return s.log
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.written {
		return
	}
	r.status = status
	r.written = true
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(b)
}

// route wraps fn with a request ID, panic recovery, request metrics and,
// when limited is set, the per-client rate limit. The limit runs before fn
// so rejected requests cause no side effects.
func (s *Server) route(name string, limited bool, fn handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()

		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		log := s.log.With("request_id", id).With("route", name)
		r = r.WithContext(withLogger(r.Context(), log))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				log.ErrorContext(r.Context(), "Recovered from panic", "error", p)
				if !rec.written {
					writeError(rec, fmt.Errorf("panic: %v", p))
				}
			}
			metrics.RecordHTTPRequest(name, rec.status, s.now().Sub(start))
		}()

		if limited {
			if err := s.rateLimit(r, name); err != nil {
				s.fail(rec, r, err)
				return
			}
		}

		if err := fn(rec, r); err != nil {
			s.fail(rec, r, err)
		}
	})
}

func (s *Server) rateLimit(r *http.Request, name string) error {
	key := ratelimit.ClientIP(r, s.conf.TrustProxyHeaders)
	allowed, err := s.limiter.Allow(r.Context(), key)
	if err != nil {
		return fmt.Errorf("rate limit %s: %w", key, err)
	}
	if !allowed {
		metrics.RecordRateLimited(name)
		s.logger(r.Context()).DebugContext(r.Context(), "rate limited", "client", key)
		return errTooManyRequests
	}
	return nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	log := s.logger(r.Context())
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		log.DebugContext(r.Context(), "request rejected", "error", err)
	} else {
		log.ErrorContext(r.Context(), "request failed", "error", err)
	}
	writeError(w, err)
}
