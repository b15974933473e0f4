package dal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxConns          = 10
	defaultMaxConnLifetime   = 30 * time.Minute
	defaultMaxConnIdleTime   = 5 * time.Minute
	defaultHealthCheckPeriod = time.Minute
)

type pgMigration struct {
	version     int
	description string
	statements  []string
}

// pgMigrations mirror the bolt migrations: applied in order, recorded in
// schema_migrations, never edited once released.
var pgMigrations = []pgMigration{
	{
		version:     1,
		description: "Create subscribers table",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS subscribers (
				chat_id    BIGINT PRIMARY KEY,
				first_name VARCHAR(256),
				last_name  VARCHAR(256),
				username   VARCHAR(256),
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				notifying  TEXT[] NOT NULL DEFAULT '{}'
			)`,
			`CREATE INDEX IF NOT EXISTS subscribers_chat_id_idx ON subscribers (chat_id)`,
		},
	},
	{
		version:     2, //nolint:mnd // version 2
		description: "Create campaigns table",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS campaigns (
				slug            TEXT PRIMARY KEY,
				title           TEXT NOT NULL,
				author_name     TEXT NOT NULL,
				author_username TEXT NOT NULL,
				started_at      TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
		},
	},
	{
		version:     3, //nolint:mnd // version 3
		description: "Create rate_limits table",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS rate_limits (
				key          TEXT NOT NULL,
				window_start TIMESTAMPTZ NOT NULL,
				hits         INTEGER NOT NULL DEFAULT 0,
				PRIMARY KEY (key, window_start)
			)`,
			`CREATE INDEX IF NOT EXISTS rate_limits_window_start_idx ON rate_limits (window_start)`,
		},
	},
}

type Postgres struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// OpenPostgres connects to dsn, verifies connectivity and applies pending
// schema migrations.
func OpenPostgres(ctx context.Context, dsn string, log *slog.Logger) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = defaultMaxConns
	cfg.MaxConnLifetime = defaultMaxConnLifetime
	cfg.MaxConnIdleTime = defaultMaxConnIdleTime
	cfg.HealthCheckPeriod = defaultHealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migratePostgres(ctx, pool, log); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return NewPostgres(pool), nil
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{
		pool: pool,
		now:  time.Now,
	}
}

// Pool exposes the connection pool so the shared rate limiter can reuse it.
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

func migratePostgres(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) error {
	log.InfoContext(ctx, "Starting database migrations")

	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	applied := make(map[int]time.Time)
	rows, err := pool.Query(ctx, `SELECT version, applied_at FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("get applied migrations: %w", err)
	}
	for rows.Next() {
		var (
			version   int
			appliedAt time.Time
		)
		if err := rows.Scan(&version, &appliedAt); err != nil {
			rows.Close()
			return fmt.Errorf("scan applied migration: %w", err)
		}
		applied[version] = appliedAt
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read applied migrations: %w", err)
	}

	appliedCount := 0
	for _, m := range pgMigrations {
		if appliedAt, ok := applied[m.version]; ok {
			log.DebugContext(ctx, "Skipping already-applied migration",
				"version", m.version,
				"description", m.description,
				"applied_at", appliedAt.Format(time.RFC3339))
			continue
		}

		log.InfoContext(ctx, "Applying migration", "version", m.version, "description", m.description)
		start := time.Now()

		err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			for _, stmt := range m.statements {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.version)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration v%d failed: %w", m.version, err)
		}

		appliedCount++
		log.InfoContext(ctx, "Migration applied successfully", "version", m.version, "duration", time.Since(start))
	}

	if appliedCount == 0 {
		log.InfoContext(ctx, "No pending migrations found")
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

const selectSubscriber = `SELECT chat_id, COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(username, ''), created_at, notifying FROM subscribers`

func scanSubscriber(row pgx.Row) (Subscriber, error) {
	var sub Subscriber
	err := row.Scan(&sub.ChatID, &sub.FirstName, &sub.LastName, &sub.Username, &sub.CreatedAt, &sub.Notifying)
	if sub.Notifying == nil {
		sub.Notifying = []string{}
	}
	return sub, err
}

func (p *Postgres) CountSubscribers(ctx context.Context) (int, error) {
	var res int
	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM subscribers`).Scan(&res); err != nil {
		return 0, fmt.Errorf("count subscribers: %w", err)
	}
	return res, nil
}

func (p *Postgres) GetSubscriber(ctx context.Context, chatID int64) (Subscriber, bool, error) {
	sub, err := scanSubscriber(p.pool.QueryRow(ctx, selectSubscriber+` WHERE chat_id = $1`, chatID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Subscriber{}, false, nil
	}
	if err != nil {
		return Subscriber{}, false, fmt.Errorf("get subscriber with id=%d: %w", chatID, err)
	}
	return sub, true, nil
}

func (p *Postgres) CreateSubscriber(ctx context.Context, sub Subscriber) (bool, error) {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = p.now()
	}

	tag, err := p.pool.Exec(ctx, `INSERT INTO subscribers (chat_id, first_name, last_name, username, created_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5)
		ON CONFLICT (chat_id) DO NOTHING`,
		sub.ChatID, sub.FirstName, sub.LastName, sub.Username, sub.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("create subscriber with id=%d: %w", sub.ChatID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (p *Postgres) DeleteSubscriber(ctx context.Context, chatID int64) (bool, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM subscribers WHERE chat_id = $1`, chatID)
	if err != nil {
		return false, fmt.Errorf("delete subscriber with id=%d: %w", chatID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) GetPendingSubscribers(ctx context.Context, slug string, limit int) ([]Subscriber, error) {
	rows, err := p.pool.Query(ctx, selectSubscriber+`
		WHERE NOT ($1::text = ANY(notifying))
		ORDER BY chat_id
		LIMIT $2`, slug, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending subscribers for %q: %w", slug, err)
	}
	defer rows.Close()

	var res []Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		res = append(res, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read pending subscribers: %w", err)
	}
	return res, nil
}

// MarkNotified appends slug only where absent, so a concurrent campaign for
// another slug never loses its own entries.
func (p *Postgres) MarkNotified(ctx context.Context, slug string, chatIDs []int64) error {
	if len(chatIDs) == 0 {
		return nil
	}

	_, err := p.pool.Exec(ctx, `UPDATE subscribers
		SET notifying = array_append(notifying, $1::text)
		WHERE chat_id = ANY($2) AND NOT ($1::text = ANY(notifying))`, slug, chatIDs)
	if err != nil {
		return fmt.Errorf("mark %d subscribers notified for %q: %w", len(chatIDs), slug, err)
	}
	return nil
}

func (p *Postgres) ClearCampaign(ctx context.Context, slug string) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE subscribers
			SET notifying = array_remove(notifying, $1::text)
			WHERE $1::text = ANY(notifying)`, slug); err != nil {
			return fmt.Errorf("clear %q from subscribers: %w", slug, err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM campaigns WHERE slug = $1`, slug); err != nil {
			return fmt.Errorf("delete campaign %q: %w", slug, err)
		}
		return nil
	})
}

func (p *Postgres) PutCampaign(ctx context.Context, c Campaign) error {
	if c.StartedAt.IsZero() {
		c.StartedAt = p.now()
	}

	_, err := p.pool.Exec(ctx, `INSERT INTO campaigns (slug, title, author_name, author_username, started_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (slug) DO UPDATE
		SET title = EXCLUDED.title, author_name = EXCLUDED.author_name, author_username = EXCLUDED.author_username`,
		c.Slug, c.Title, c.Author.Name, c.Author.Username, c.StartedAt)
	if err != nil {
		return fmt.Errorf("put campaign %q: %w", c.Slug, err)
	}
	return nil
}

func (p *Postgres) GetCampaigns(ctx context.Context) ([]Campaign, error) {
	rows, err := p.pool.Query(ctx, `SELECT slug, title, author_name, author_username, started_at FROM campaigns ORDER BY started_at`)
	if err != nil {
		return nil, fmt.Errorf("get campaigns: %w", err)
	}
	defer rows.Close()

	var res []Campaign
	for rows.Next() {
		var c Campaign
		if err := rows.Scan(&c.Slug, &c.Title, &c.Author.Name, &c.Author.Username, &c.StartedAt); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		res = append(res, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read campaigns: %w", err)
	}
	return res, nil
}
