package dal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func (s *BoltDBTestSuite) TestBoltDB_PutCampaign() {
	startedAt := time.Date(2025, time.May, 2, 8, 0, 0, 0, time.UTC)
	s.now.Set(startedAt)

	s.Require().NoError(s.store.PutCampaign(s.ctx, newCampaign("post-a")))

	// re-announcing an open campaign keeps the original start
	s.now.Set(startedAt.Add(time.Hour))
	updated := newCampaign("post-a")
	updated.Title = "Judul Baru"
	s.Require().NoError(s.store.PutCampaign(s.ctx, updated))

	campaigns, err := s.store.GetCampaigns(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(campaigns, 1)
	s.Equal("Judul Baru", campaigns[0].Title)
	s.Equal(startedAt, campaigns[0].StartedAt.UTC())
}

func (s *BoltDBTestSuite) TestBoltDB_GetCampaigns_Empty() {
	campaigns, err := s.store.GetCampaigns(s.ctx)
	s.Require().NoError(err)
	s.Empty(campaigns)
}

func TestSubscriber_Notified(t *testing.T) {
	sub := newSubscriber(1, "post-a", "post-b")
	assert.True(t, sub.Notified("post-a"))
	assert.True(t, sub.Notified("post-b"))
	assert.False(t, sub.Notified("post-c"))
	assert.False(t, newSubscriber(2).Notified("post-a"))
}
