package dal

import (
	"time"
)

func (s *BoltDBTestSuite) TestBoltDB_CountSubscribers() {
	count, err := s.store.CountSubscribers(s.ctx)
	s.Require().NoError(err, "error counting subscribers")
	s.Require().Equal(0, count)

	s.mustCreate(newSubscriber(1))
	s.mustCreate(newSubscriber(2))

	created, err := s.store.CreateSubscriber(s.ctx, newSubscriber(1)) // same chat ID
	s.Require().NoError(err)
	s.False(created)

	count, err = s.store.CountSubscribers(s.ctx)
	s.Require().NoError(err, "error counting subscribers")
	s.Equal(2, count)
}

func (s *BoltDBTestSuite) TestBoltDB_GetSubscriber() {
	s.mustCreate(newSubscriber(1))

	actual, ok, err := s.store.GetSubscriber(s.ctx, 1)
	s.Require().NoError(err)
	if s.True(ok) {
		s.Equal(newSubscriber(1), actual)
	}

	_, ok, err = s.store.GetSubscriber(s.ctx, 2)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *BoltDBTestSuite) TestBoltDB_CreateSubscriber() {
	createdAt := time.Date(2025, time.November, 11, 18, 19, 20, 0, time.UTC)
	s.now.Set(createdAt)

	sub := newSubscriber(1)
	sub.CreatedAt = time.Time{}
	sub.Notifying = nil
	s.mustCreate(sub)

	actual, ok, err := s.store.GetSubscriber(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(createdAt, actual.CreatedAt.UTC(), "created at must be stamped by the store")
	s.Equal([]string{}, actual.Notifying)

	// a second insert must not override the existing row
	other := newSubscriber(1)
	other.FirstName = "Other"
	created, err := s.store.CreateSubscriber(s.ctx, other)
	s.Require().NoError(err)
	s.False(created)

	actual, _, err = s.store.GetSubscriber(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("Ahmad", actual.FirstName)
}

func (s *BoltDBTestSuite) TestBoltDB_DeleteSubscriber() {
	s.mustCreate(newSubscriber(1))

	deleted, err := s.store.DeleteSubscriber(s.ctx, 1)
	s.Require().NoError(err)
	s.True(deleted)

	deleted, err = s.store.DeleteSubscriber(s.ctx, 1)
	s.Require().NoError(err)
	s.False(deleted)

	_, ok, err := s.store.GetSubscriber(s.ctx, 1)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *BoltDBTestSuite) TestBoltDB_GetPendingSubscribers() {
	// inserted out of order and with ids whose decimal keys sort differently
	for _, id := range []int64{100, 2, 30, 1, 11} {
		s.mustCreate(newSubscriber(id))
	}
	s.Require().NoError(s.store.MarkNotified(s.ctx, "post-a", []int64{30}))
	s.Require().NoError(s.store.MarkNotified(s.ctx, "post-b", []int64{2}))

	pending, err := s.store.GetPendingSubscribers(s.ctx, "post-a", 3)
	s.Require().NoError(err)
	s.Equal([]int64{1, 2, 11}, chatIDs(pending))

	pending, err = s.store.GetPendingSubscribers(s.ctx, "post-a", 25)
	s.Require().NoError(err)
	s.Equal([]int64{1, 2, 11, 100}, chatIDs(pending))

	pending, err = s.store.GetPendingSubscribers(s.ctx, "post-b", 25)
	s.Require().NoError(err)
	s.Equal([]int64{1, 11, 30, 100}, chatIDs(pending))
}

func (s *BoltDBTestSuite) TestBoltDB_MarkNotified() {
	s.mustCreate(newSubscriber(1))
	s.mustCreate(newSubscriber(2, "post-b"))
	s.mustCreate(newSubscriber(3))

	s.Require().NoError(s.store.MarkNotified(s.ctx, "post-a", []int64{1, 2, 2, 404}))
	// appending twice keeps the set semantics
	s.Require().NoError(s.store.MarkNotified(s.ctx, "post-a", []int64{1}))
	s.Require().NoError(s.store.MarkNotified(s.ctx, "post-a", nil))

	s.Equal([]string{"post-a"}, s.mustGet(1).Notifying)
	s.Equal([]string{"post-b", "post-a"}, s.mustGet(2).Notifying)
	s.Equal([]string{}, s.mustGet(3).Notifying, "subscribers outside the batch must be untouched")

	_, ok, err := s.store.GetSubscriber(s.ctx, 404)
	s.Require().NoError(err)
	s.False(ok, "marking must not create subscribers")
}

func (s *BoltDBTestSuite) TestBoltDB_ClearCampaign() {
	s.mustCreate(newSubscriber(1, "post-a"))
	s.mustCreate(newSubscriber(2, "post-a", "post-b"))
	s.mustCreate(newSubscriber(3, "post-b"))
	s.Require().NoError(s.store.PutCampaign(s.ctx, newCampaign("post-a")))
	s.Require().NoError(s.store.PutCampaign(s.ctx, newCampaign("post-b")))

	s.Require().NoError(s.store.ClearCampaign(s.ctx, "post-a"))

	s.Equal([]string{}, s.mustGet(1).Notifying)
	s.Equal([]string{"post-b"}, s.mustGet(2).Notifying)
	s.Equal([]string{"post-b"}, s.mustGet(3).Notifying)

	campaigns, err := s.store.GetCampaigns(s.ctx)
	s.Require().NoError(err)
	if s.Len(campaigns, 1) {
		s.Equal("post-b", campaigns[0].Slug)
	}

	// clearing an unknown slug is a no-op
	s.NoError(s.store.ClearCampaign(s.ctx, "missing"))
}

func (s *BoltDBTestSuite) mustCreate(sub Subscriber) {
	created, err := s.store.CreateSubscriber(s.ctx, sub)
	s.Require().NoError(err, "error creating subscriber")
	s.Require().True(created)
}

func (s *BoltDBTestSuite) mustGet(chatID int64) Subscriber {
	res, ok, err := s.store.GetSubscriber(s.ctx, chatID)
	s.Require().NoError(err, "error getting subscriber")
	s.Require().True(ok)
	return res
}

func chatIDs(subs []Subscriber) []int64 {
	res := make([]int64, 0, len(subs))
	for _, sub := range subs {
		res = append(res, sub.ChatID)
	}
	return res
}
