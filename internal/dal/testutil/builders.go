package testutil

import (
	"time"

	"github.com/himarplupi/bot-himarpl/internal/dal"
)

// SubscriberBuilder provides fluent API for building test subscribers
type SubscriberBuilder struct {
	sub dal.Subscriber
}

// NewSubscriber creates a new subscriber builder with defaults
func NewSubscriber(chatID int64) *SubscriberBuilder {
	return &SubscriberBuilder{
		sub: dal.Subscriber{
			ChatID:    chatID,
			FirstName: "Ahmad",
			CreatedAt: time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC),
			Notifying: []string{},
		},
	}
}

func (b *SubscriberBuilder) WithName(first, last string) *SubscriberBuilder {
	b.sub.FirstName = first
	b.sub.LastName = last
	return b
}

func (b *SubscriberBuilder) WithUsername(username string) *SubscriberBuilder {
	b.sub.Username = username
	return b
}

// WithCreatedAt sets the creation time
func (b *SubscriberBuilder) WithCreatedAt(t time.Time) *SubscriberBuilder {
	b.sub.CreatedAt = t
	return b
}

// WithNotifying adds slugs already delivered to the subscriber
func (b *SubscriberBuilder) WithNotifying(slugs ...string) *SubscriberBuilder {
	b.sub.Notifying = append(b.sub.Notifying, slugs...)
	return b
}

// Build returns the constructed subscriber
func (b *SubscriberBuilder) Build() dal.Subscriber {
	res := b.sub
	res.Notifying = append([]string{}, b.sub.Notifying...)
	return res
}

// CampaignBuilder provides fluent API for building test campaigns
type CampaignBuilder struct {
	c dal.Campaign
}

func NewCampaign(slug string) *CampaignBuilder {
	return &CampaignBuilder{
		c: dal.Campaign{
			Slug:  slug,
			Title: "Mengenal HIMARPL",
			Author: dal.Author{
				Name:     "Budi Santoso",
				Username: "budi",
			},
		},
	}
}

func (b *CampaignBuilder) WithTitle(title string) *CampaignBuilder {
	b.c.Title = title
	return b
}

func (b *CampaignBuilder) WithAuthor(name, username string) *CampaignBuilder {
	b.c.Author = dal.Author{Name: name, Username: username}
	return b
}

func (b *CampaignBuilder) WithStartedAt(t time.Time) *CampaignBuilder {
	b.c.StartedAt = t
	return b
}

func (b *CampaignBuilder) Build() dal.Campaign {
	return b.c
}
