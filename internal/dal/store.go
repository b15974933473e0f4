package dal

import (
	"context"
	"fmt"
	"log/slog"
)

// Store is the persistence contract shared by the bolt and postgres backends.
type Store interface {
	CountSubscribers(ctx context.Context) (int, error)
	GetSubscriber(ctx context.Context, chatID int64) (Subscriber, bool, error)
	CreateSubscriber(ctx context.Context, sub Subscriber) (bool, error)
	DeleteSubscriber(ctx context.Context, chatID int64) (bool, error)
	GetPendingSubscribers(ctx context.Context, slug string, limit int) ([]Subscriber, error)
	MarkNotified(ctx context.Context, slug string, chatIDs []int64) error
	ClearCampaign(ctx context.Context, slug string) error
	PutCampaign(ctx context.Context, c Campaign) error
	GetCampaigns(ctx context.Context) ([]Campaign, error)
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*BoltDB)(nil)
	_ Store = (*Postgres)(nil)
)

const (
	BackendPostgres = "postgres"
	BackendBolt     = "bolt"
)

// Open returns the store for backend. dsn is a database URL for postgres and
// a file path for bolt.
func Open(ctx context.Context, backend, dsn string, log *slog.Logger) (Store, error) {
	log = log.With("component", "dal").With("backend", backend)

	switch backend {
	case BackendPostgres:
		return OpenPostgres(ctx, dsn, log)
	case BackendBolt:
		return OpenBolt(dsn, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
