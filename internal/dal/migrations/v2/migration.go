package v2

import (
	"fmt"

	"go.etcd.io/bbolt"
)

const campaignsBucket = "campaigns"

// Migration creates the bucket holding open campaign descriptors keyed by
// slug.
type Migration struct{}

func New() *Migration {
	return &Migration{}
}

func (*Migration) Version() int {
	return 2 //nolint:mnd // version 2
}

func (*Migration) Description() string {
	return "Create campaigns bucket"
}

func (*Migration) Up(tx *bbolt.Tx) error {
	if _, err := tx.CreateBucketIfNotExists([]byte(campaignsBucket)); err != nil {
		return fmt.Errorf("create bucket %q: %w", campaignsBucket, err)
	}
	return nil
}
