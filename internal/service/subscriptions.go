package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/himarplupi/bot-himarpl/internal/dal"
)

//go:generate mockgen -package mocks -destination mocks/subscriptions.go . SubscriptionsStore

var (
	ErrAlreadySubscribed = errors.New("chat is already subscribed")
	ErrNotSubscribed     = errors.New("chat is not subscribed")
)

type Clock interface {
	Now() time.Time
}

type SubscriptionsStore interface {
	GetSubscriber(ctx context.Context, chatID int64) (dal.Subscriber, bool, error)
	CreateSubscriber(ctx context.Context, sub dal.Subscriber) (bool, error)
	DeleteSubscriber(ctx context.Context, chatID int64) (bool, error)
}

type Subscriptions struct {
	store SubscriptionsStore
	clock Clock

	log *slog.Logger
}

func NewSubscriptions(store SubscriptionsStore, clock Clock, log *slog.Logger) *Subscriptions {
	return &Subscriptions{
		store: store,
		clock: clock,
		log:   log.With("component", "service").With("service", "subscriptions"),
	}
}

func (s *Subscriptions) IsSubscribed(ctx context.Context, chatID int64) (bool, error) {
	_, exists, err := s.store.GetSubscriber(ctx, chatID)
	if err != nil {
		return false, fmt.Errorf("get subscriber: %w", err)
	}
	return exists, nil
}

// Subscribe inserts sub with an empty notifying set. It returns
// ErrAlreadySubscribed when the chat already has a row.
func (s *Subscriptions) Subscribe(ctx context.Context, sub dal.Subscriber) error {
	sub.CreatedAt = s.clock.Now()
	sub.Notifying = []string{}

	created, err := s.store.CreateSubscriber(ctx, sub)
	if err != nil {
		return fmt.Errorf("create subscriber: %w", err)
	}
	if !created {
		return fmt.Errorf("subscribe chatID=%d: %w", sub.ChatID, ErrAlreadySubscribed)
	}

	s.log.DebugContext(ctx, "new subscriber", "chatID", sub.ChatID)
	return nil
}

// Unsubscribe deletes the chat's row. It returns ErrNotSubscribed when there
// was nothing to delete.
func (s *Subscriptions) Unsubscribe(ctx context.Context, chatID int64) error {
	deleted, err := s.store.DeleteSubscriber(ctx, chatID)
	if err != nil {
		return fmt.Errorf("delete subscriber: %w", err)
	}
	if !deleted {
		return fmt.Errorf("unsubscribe chatID=%d: %w", chatID, ErrNotSubscribed)
	}

	s.log.DebugContext(ctx, "subscriber removed", "chatID", chatID)
	return nil
}

// Purge removes a chat that can no longer be reached. Missing rows are fine.
func (s *Subscriptions) Purge(ctx context.Context, chatID int64) {
	err := s.Unsubscribe(ctx, chatID)
	switch {
	case errors.Is(err, ErrNotSubscribed):
		return
	case err != nil:
		s.log.ErrorContext(ctx, "failed to purge unreachable chat", "chatID", chatID, "error", err)
	default:
		s.log.InfoContext(ctx, "purged unreachable chat", "chatID", chatID)
	}
}
