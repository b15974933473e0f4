package testutil

import (
	"github.com/stretchr/testify/assert"

	"github.com/himarplupi/bot-himarpl/internal/dal"
)

func AssertErrorIsAndContains(wantErr error, contains string) assert.ErrorAssertionFunc {
	return func(t assert.TestingT, err error, i ...interface{}) bool {
		return assert.Error(t, err, i...) && assert.ErrorIs(t, err, wantErr) && assert.ErrorContains(t, err, contains)
	}
}

// AssertInvalidCampaign expects a campaign validation error naming reason.
func AssertInvalidCampaign(reason string) assert.ErrorAssertionFunc {
	return AssertErrorIsAndContains(dal.ErrInvalidCampaign, reason)
}
