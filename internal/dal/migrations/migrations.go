// Package migrations evolves the bbolt file layout. Each migration runs in
// the same write transaction that records it, so a crash never leaves a
// migration half applied or applied but unrecorded.
package migrations

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.etcd.io/bbolt"

	v1 "github.com/himarplupi/bot-himarpl/internal/dal/migrations/v1"
	v2 "github.com/himarplupi/bot-himarpl/internal/dal/migrations/v2"
)

const migrationsBucket = "migrations"

type Migration interface {
	Version() int
	Description() string
	Up(tx *bbolt.Tx) error
}

var registeredMigrations = sorted(
	v1.New(),
	v2.New(),
)

func sorted(ms ...Migration) []Migration {
	slices.SortFunc(ms, func(a, b Migration) int {
		return cmp.Compare(a.Version(), b.Version())
	})
	return ms
}

// RunMigrations applies every registered migration that the database has not
// recorded yet, in version order.
func RunMigrations(db *bbolt.DB, log *slog.Logger) error {
	log = log.With("component", "migrations")

	pending, err := pendingMigrations(db)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		log.Debug("Bolt schema is up to date")
		return nil
	}

	for _, m := range pending {
		start := time.Now()
		err := db.Update(func(tx *bbolt.Tx) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Bucket([]byte(migrationsBucket)).Put(versionKey(m.Version()), []byte(time.Now().UTC().Format(time.RFC3339)))
		})
		if err != nil {
			return fmt.Errorf("apply migration v%d (%s): %w", m.Version(), m.Description(), err)
		}

		log.Info("Applied bolt migration",
			"version", m.Version(),
			"description", m.Description(),
			"duration", time.Since(start))
	}

	return nil
}

func pendingMigrations(db *bbolt.DB) ([]Migration, error) {
	var pending []Migration

	err := db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(migrationsBucket))
		if err != nil {
			return fmt.Errorf("create migrations bucket: %w", err)
		}

		for _, m := range registeredMigrations {
			if b.Get(versionKey(m.Version())) == nil {
				pending = append(pending, m)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return pending, nil
}

func versionKey(version int) []byte {
	return fmt.Appendf(nil, "v%d", version)
}
