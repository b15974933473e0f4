package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/himarplupi/bot-himarpl/internal/dal"
)

// SubscriberMatcher compares subscribers ignoring CreatedAt, which the store
// stamps on insert.
type SubscriberMatcher struct {
	t    *testing.T
	want dal.Subscriber
}

func NewSubscriberMatcher(t *testing.T, want dal.Subscriber) *SubscriberMatcher {
	return &SubscriberMatcher{
		t:    t,
		want: want,
	}
}

func (m SubscriberMatcher) Matches(x interface{}) bool {
	actual, ok := x.(dal.Subscriber)
	if !ok {
		m.t.Fatalf("SubscriberMatcher.Matches: expected dal.Subscriber, got %T", x)
		return false
	}

	m.want.CreatedAt = actual.CreatedAt
	return assert.Equal(m.t, m.want, actual)
}

func (m SubscriberMatcher) String() string {
	return "SubscriberMatcher.Matches"
}
