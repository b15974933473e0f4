package dal

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"go.etcd.io/bbolt"
)

func (s *BoltDB) CountSubscribers(_ context.Context) (int, error) {
	var res int
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(subscribersBucket))
		res = b.Stats().KeyN
		return nil
	})
	return res, err
}

func (s *BoltDB) GetSubscriber(_ context.Context, chatID int64) (Subscriber, bool, error) {
	var res Subscriber
	found := false

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(subscribersBucket)).Get(i64tob(chatID))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &res)
	})

	return res, found, err
}

// CreateSubscriber inserts sub unless a subscriber with the same chat ID
// already exists. The returned flag reports whether a row was written.
func (s *BoltDB) CreateSubscriber(_ context.Context, sub Subscriber) (bool, error) {
	created := false

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(subscribersBucket))

		id := i64tob(sub.ChatID)
		if b.Get(id) != nil {
			return nil
		}

		if sub.CreatedAt.IsZero() {
			sub.CreatedAt = s.now()
		}
		if sub.Notifying == nil {
			sub.Notifying = []string{}
		}

		data, err := json.Marshal(&sub)
		if err != nil {
			return fmt.Errorf("marshal subscriber for chatID=%d: %w", sub.ChatID, err)
		}
		if err := b.Put(id, data); err != nil {
			return fmt.Errorf("put subscriber for chatID=%d: %w", sub.ChatID, err)
		}

		created = true
		return nil
	})

	return created, err
}

func (s *BoltDB) DeleteSubscriber(_ context.Context, chatID int64) (bool, error) {
	deleted := false

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(subscribersBucket))

		id := i64tob(chatID)
		if b.Get(id) == nil {
			return nil
		}
		if err := b.Delete(id); err != nil {
			return fmt.Errorf("delete subscriber with id=%d: %w", chatID, err)
		}

		deleted = true
		return nil
	})

	return deleted, err
}

// GetPendingSubscribers returns up to limit subscribers whose notifying set
// lacks slug, ordered by chat ID.
func (s *BoltDB) GetPendingSubscribers(_ context.Context, slug string, limit int) ([]Subscriber, error) {
	var res []Subscriber

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(subscribersBucket)).ForEach(func(_, v []byte) error {
			var sub Subscriber
			if err := json.Unmarshal(v, &sub); err != nil {
				return fmt.Errorf("unmarshal subscriber: %w", err)
			}
			if !sub.Notified(slug) {
				res = append(res, sub)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	// keys are decimal strings, so bucket order is not numeric order
	slices.SortFunc(res, func(a, b Subscriber) int {
		switch {
		case a.ChatID < b.ChatID:
			return -1
		case a.ChatID > b.ChatID:
			return 1
		}
		return 0
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}

	return res, nil
}

// MarkNotified appends slug to the notifying set of exactly the given
// subscribers in one transaction. Subscribers that already carry the slug or
// no longer exist are left untouched.
func (s *BoltDB) MarkNotified(_ context.Context, slug string, chatIDs []int64) error {
	if len(chatIDs) == 0 {
		return nil
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(subscribersBucket))

		for id := range chatIDSet(chatIDs) {
			key := i64tob(id)
			data := b.Get(key)
			if data == nil {
				continue
			}

			var sub Subscriber
			if err := json.Unmarshal(data, &sub); err != nil {
				return fmt.Errorf("unmarshal subscriber with id=%d: %w", id, err)
			}
			if sub.Notified(slug) {
				continue
			}
			sub.Notifying = append(sub.Notifying, slug)

			updated, err := json.Marshal(&sub)
			if err != nil {
				return fmt.Errorf("marshal subscriber with id=%d: %w", id, err)
			}
			if err := b.Put(key, updated); err != nil {
				return fmt.Errorf("put subscriber with id=%d: %w", id, err)
			}
		}

		return nil
	})
}

// ClearCampaign removes slug from every subscriber's notifying set and drops
// the campaign record.
func (s *BoltDB) ClearCampaign(_ context.Context, slug string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(subscribersBucket))

		// bbolt forbids mutating a bucket while iterating it
		updates := make(map[string][]byte)
		err := b.ForEach(func(k, v []byte) error {
			var sub Subscriber
			if err := json.Unmarshal(v, &sub); err != nil {
				return fmt.Errorf("unmarshal subscriber: %w", err)
			}
			if !sub.Notified(slug) {
				return nil
			}

			sub.Notifying = slices.DeleteFunc(sub.Notifying, func(v string) bool { return v == slug })
			data, err := json.Marshal(&sub)
			if err != nil {
				return fmt.Errorf("marshal subscriber with id=%d: %w", sub.ChatID, err)
			}
			updates[string(k)] = data
			return nil
		})
		if err != nil {
			return err
		}

		for k, v := range updates {
			if err := b.Put([]byte(k), v); err != nil {
				return fmt.Errorf("put subscriber with key=%s: %w", k, err)
			}
		}

		if err := tx.Bucket([]byte(campaignsBucket)).Delete([]byte(slug)); err != nil {
			return fmt.Errorf("delete campaign %q: %w", slug, err)
		}
		return nil
	})
}
