package v1

import (
	"fmt"

	"go.etcd.io/bbolt"
)

const subscribersBucket = "subscribers"

// Migration creates the subscribers bucket keyed by decimal chat ID.
type Migration struct{}

func New() *Migration {
	return &Migration{}
}

func (*Migration) Version() int {
	return 1
}

func (*Migration) Description() string {
	return "Create subscribers bucket"
}

func (*Migration) Up(tx *bbolt.Tx) error {
	if _, err := tx.CreateBucketIfNotExists([]byte(subscribersBucket)); err != nil {
		return fmt.Errorf("create bucket %q: %w", subscribersBucket, err)
	}
	return nil
}
