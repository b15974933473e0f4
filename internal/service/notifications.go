package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	tb "gopkg.in/telebot.v3"

	"github.com/himarplupi/bot-himarpl/internal/dal"
	"github.com/himarplupi/bot-himarpl/internal/metrics"
)

//go:generate mockgen -package mocks -destination mocks/notifications.go . NotificationsStore,Sender,Formatter

const (
	DefaultBatchSize  = 25
	DefaultBatchDelay = time.Second

	// maxMarkFailures stops a loop that keeps re-sending the same batch
	// because its progress cannot be recorded.
	maxMarkFailures = 3
)

var ErrCampaignStalled = errors.New("campaign progress cannot be recorded")

type (
	NotificationsStore interface {
		GetPendingSubscribers(ctx context.Context, slug string, limit int) ([]dal.Subscriber, error)
		MarkNotified(ctx context.Context, slug string, chatIDs []int64) error
		ClearCampaign(ctx context.Context, slug string) error
		PutCampaign(ctx context.Context, c dal.Campaign) error
	}

	Sender interface {
		SendMessage(ctx context.Context, chatID int64, text string, opts *tb.SendOptions) bool
	}

	Formatter interface {
		Notification(c dal.Campaign, link string) string
	}

	Timer interface {
		Clock
		After(d time.Duration) <-chan time.Time
	}

	NotificationsConfig struct {
		BatchSize   int
		BatchDelay  time.Duration
		BlogBaseURL string
	}

	// Notifications delivers campaigns to every subscriber in paced batches.
	// Progress lives only in each subscriber's notifying set, so a loop can
	// be restarted at any point and continues where the previous one stopped.
	Notifications struct {
		store     NotificationsStore
		sender    Sender
		formatter Formatter
		clock     Timer
		conf      NotificationsConfig

		log *slog.Logger

		mx      *sync.Mutex
		running map[string]struct{}
		wg      *sync.WaitGroup
	}
)

func NewNotifications(
	store NotificationsStore,
	sender Sender,
	formatter Formatter,
	clock Timer,
	conf NotificationsConfig,
	log *slog.Logger,
) *Notifications {
	if conf.BatchSize <= 0 {
		conf.BatchSize = DefaultBatchSize
	}
	if conf.BatchDelay < 0 {
		conf.BatchDelay = DefaultBatchDelay
	}

	return &Notifications{
		store:     store,
		sender:    sender,
		formatter: formatter,
		clock:     clock,
		conf:      conf,

		log: log.With("component", "service").With("service", "notifications"),

		mx:      &sync.Mutex{},
		running: make(map[string]struct{}),
		wg:      &sync.WaitGroup{},
	}
}

// Link returns the public URL of the campaign's post.
func (s *Notifications) Link(c dal.Campaign) string {
	return strings.TrimRight(s.conf.BlogBaseURL, "/") + "/@" + url.PathEscape(c.Author.Username) + "/" + url.PathEscape(c.Slug)
}

// Dispatch starts Run for c in the background and returns immediately. It
// returns false when a loop for the same slug is already in flight.
func (s *Notifications) Dispatch(ctx context.Context, c dal.Campaign) bool {
	s.mx.Lock()
	if _, ok := s.running[c.Slug]; ok {
		s.mx.Unlock()
		s.log.InfoContext(ctx, "campaign already in flight", "slug", c.Slug)
		return false
	}
	s.running[c.Slug] = struct{}{}
	s.mx.Unlock()

	metrics.CampaignsInFlight.Inc()
	s.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.ErrorContext(ctx, "Recovered from panic", "slug", c.Slug, "error", r)
			}

			s.mx.Lock()
			delete(s.running, c.Slug)
			s.mx.Unlock()
			metrics.CampaignsInFlight.Dec()
		}()

		if err := s.Run(ctx, c); err != nil {
			if errors.Is(err, context.Canceled) {
				s.log.InfoContext(ctx, "campaign interrupted", "slug", c.Slug)
				return
			}
			s.log.ErrorContext(ctx, "campaign failed", "slug", c.Slug, "error", err)
		}
	})

	return true
}

// Wait blocks until every dispatched loop has returned.
func (s *Notifications) Wait() {
	s.wg.Wait()
}

// Run delivers c batch by batch until no subscriber is pending, then clears
// the slug from every subscriber. A failed fetch or repeated failures to
// record progress end it early.
func (s *Notifications) Run(ctx context.Context, c dal.Campaign) error {
	log := s.log.With("slug", c.Slug)

	if err := s.store.PutCampaign(ctx, c); err != nil {
		log.WarnContext(ctx, "failed to persist campaign, it will not be resumed after a restart", "error", err)
	}

	text := s.formatter.Notification(c, s.Link(c))
	startedAt := s.clock.Now()
	markFailures := 0

	for batch := 1; ; batch++ {
		subs, err := s.store.GetPendingSubscribers(ctx, c.Slug, s.conf.BatchSize)
		if err != nil {
			return fmt.Errorf("get pending subscribers: %w", err)
		}

		if len(subs) == 0 {
			if err := s.store.ClearCampaign(ctx, c.Slug); err != nil {
				log.ErrorContext(ctx, "failed to clear campaign", "error", err)
			}
			metrics.RecordCampaignCompleted()
			log.InfoContext(ctx, "campaign completed",
				"batches", batch-1,
				"duration", s.clock.Now().Sub(startedAt))
			return nil
		}

		chatIDs := make([]int64, 0, len(subs))
		sent := 0
		for _, sub := range subs {
			if s.sender.SendMessage(ctx, sub.ChatID, text, nil) {
				sent++
			}
			chatIDs = append(chatIDs, sub.ChatID)
		}
		metrics.RecordBatch(sent, len(subs)-sent)
		log.DebugContext(ctx, "batch delivered", "batch", batch, "size", len(subs), "sent", sent)

		// the batch was attempted, record it even if ctx is already cancelled
		if err := s.store.MarkNotified(context.WithoutCancel(ctx), c.Slug, chatIDs); err != nil {
			markFailures++
			log.ErrorContext(ctx, "failed to mark batch notified", "batch", batch, "error", err)
			if markFailures >= maxMarkFailures {
				return fmt.Errorf("mark batch %d: %w: %w", batch, ErrCampaignStalled, err)
			}
		} else {
			markFailures = 0
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(s.conf.BatchDelay):
		}
	}
}
