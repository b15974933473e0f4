package dal

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

// PutCampaign stores c, keeping the original StartedAt when the slug is
// already open.
func (s *BoltDB) PutCampaign(_ context.Context, c Campaign) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(campaignsBucket))

		if data := b.Get([]byte(c.Slug)); data != nil {
			var existing Campaign
			if err := json.Unmarshal(data, &existing); err != nil {
				return fmt.Errorf("unmarshal campaign %q: %w", c.Slug, err)
			}
			c.StartedAt = existing.StartedAt
		} else if c.StartedAt.IsZero() {
			c.StartedAt = s.now()
		}

		data, err := json.Marshal(&c)
		if err != nil {
			return fmt.Errorf("marshal campaign %q: %w", c.Slug, err)
		}
		if err := b.Put([]byte(c.Slug), data); err != nil {
			return fmt.Errorf("put campaign %q: %w", c.Slug, err)
		}
		return nil
	})
}

func (s *BoltDB) GetCampaigns(_ context.Context) ([]Campaign, error) {
	var res []Campaign

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(campaignsBucket)).ForEach(func(_, v []byte) error {
			var c Campaign
			if err := json.Unmarshal(v, &c); err != nil {
				return fmt.Errorf("unmarshal campaign: %w", err)
			}
			res = append(res, c)
			return nil
		})
	})

	return res, err
}
