package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pruneEvery controls how often (in checks) expired windows are deleted.
const pruneEvery = 100

// Querier is the subset of pgxpool.Pool the shared limiter needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Postgres is a fixed window counter shared by every instance using the same
// database. Each check is one upsert, so concurrent requests at a window
// boundary are counted atomically.
type Postgres struct {
	db  Querier
	cfg Config
	now func() time.Time
	log *slog.Logger

	checks atomic.Uint64
}

func NewPostgres(db Querier, cfg Config, log *slog.Logger) *Postgres {
	return &Postgres{
		db:  db,
		cfg: cfg,
		now: time.Now,
		log: log.With("component", "ratelimit").With("backend", BackendPostgres),
	}
}

func (p *Postgres) Allow(ctx context.Context, key string) (bool, error) {
	windowStart := p.now().UTC().Truncate(p.cfg.Window)

	var hits int
	err := p.db.QueryRow(ctx, `INSERT INTO rate_limits (key, window_start, hits)
		VALUES ($1, $2, 1)
		ON CONFLICT (key, window_start) DO UPDATE SET hits = rate_limits.hits + 1
		RETURNING hits`, key, windowStart).Scan(&hits)
	if err != nil {
		return false, fmt.Errorf("count hits for %q: %w", key, err)
	}

	if p.checks.Add(1)%pruneEvery == 0 {
		p.prune(ctx, windowStart)
	}

	return hits <= p.cfg.Requests, nil
}

func (p *Postgres) prune(ctx context.Context, current time.Time) {
	tag, err := p.db.Exec(ctx, `DELETE FROM rate_limits WHERE window_start < $1`, current)
	if err != nil {
		p.log.WarnContext(ctx, "failed to prune expired rate limit windows", "error", err)
		return
	}
	p.log.DebugContext(ctx, "pruned expired rate limit windows", "rows", tag.RowsAffected())
}
