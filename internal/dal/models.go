package dal

import (
	"errors"
	"slices"
	"time"
)

var ErrInvalidCampaign = errors.New("invalid campaign")

type (
	// Subscriber is a chat that opted in with /notifyme. Notifying holds the
	// slugs of open campaigns already delivered to it.
	Subscriber struct {
		ChatID    int64     `json:"chat_id"`
		FirstName string    `json:"first_name,omitempty"`
		LastName  string    `json:"last_name,omitempty"`
		Username  string    `json:"username,omitempty"`
		CreatedAt time.Time `json:"created_at"`
		Notifying []string  `json:"notifying"`
	}

	Author struct {
		Name     string `json:"name"`
		Username string `json:"username"`
	}

	// Campaign describes a post being announced to subscribers. It is kept
	// only while the campaign is open so an interrupted fan-out can resume.
	Campaign struct {
		Slug      string    `json:"slug"`
		Title     string    `json:"title"`
		Author    Author    `json:"author"`
		StartedAt time.Time `json:"started_at"`
	}
)

func (s Subscriber) Notified(slug string) bool {
	return slices.Contains(s.Notifying, slug)
}

func (c Campaign) Validate() error {
	switch {
	case c.Slug == "":
		return errors.Join(ErrInvalidCampaign, errors.New("slug is required"))
	case c.Title == "":
		return errors.Join(ErrInvalidCampaign, errors.New("title is required"))
	case c.Author.Name == "":
		return errors.Join(ErrInvalidCampaign, errors.New("author name is required"))
	case c.Author.Username == "":
		return errors.Join(ErrInvalidCampaign, errors.New("author username is required"))
	}
	return nil
}

func chatIDSet(chatIDs []int64) map[int64]struct{} {
	res := make(map[int64]struct{}, len(chatIDs))
	for _, id := range chatIDs {
		res[id] = struct{}{}
	}
	return res
}
