package dal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.etcd.io/bbolt"

	"github.com/himarplupi/bot-himarpl/internal/dal/migrations"
)

const (
	subscribersBucket = "subscribers"
	campaignsBucket   = "campaigns"
)

type BoltDB struct {
	db  *bbolt.DB
	now func() time.Time
}

// OpenBolt opens (or creates) the database file at path and applies pending
// migrations.
func OpenBolt(path string, log *slog.Logger) (*BoltDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:mnd // default dir perms
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second}) //nolint:mnd // owner only
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	if err := migrations.RunMigrations(db, log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return NewBoltDB(db)
}

// NewBoltDB wraps an already migrated database.
func NewBoltDB(db *bbolt.DB) (*BoltDB, error) {
	err := db.View(func(tx *bbolt.Tx) error {
		for _, name := range []string{subscribersBucket, campaignsBucket} {
			if tx.Bucket([]byte(name)) == nil {
				return fmt.Errorf("bucket %q not found, migrations not applied", name)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &BoltDB{
		db:  db,
		now: time.Now,
	}, nil
}

func (s *BoltDB) Ping(_ context.Context) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(subscribersBucket)) == nil {
			return fmt.Errorf("bucket %q not found", subscribersBucket)
		}
		return nil
	})
}

func (s *BoltDB) Close() error {
	return s.db.Close()
}

func i64tob(id int64) []byte {
	return []byte(strconv.FormatInt(id, 10))
}
