package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/himarplupi/bot-himarpl/internal/dal"
	"github.com/himarplupi/bot-himarpl/internal/metrics"
)

//go:generate mockgen -package mocks -destination mocks/resumer.go . CampaignsStore,Dispatcher

type (
	CampaignsStore interface {
		GetCampaigns(ctx context.Context) ([]dal.Campaign, error)
		CountSubscribers(ctx context.Context) (int, error)
	}

	Dispatcher interface {
		Dispatch(ctx context.Context, c dal.Campaign) bool
	}

	// Resumer re-dispatches open campaigns so a fan-out interrupted by a
	// restart or a failed fetch finishes without an external trigger.
	Resumer struct {
		store      CampaignsStore
		dispatcher Dispatcher
		schedule   string

		log *slog.Logger
	}
)

func NewResumer(store CampaignsStore, dispatcher Dispatcher, schedule string, log *slog.Logger) *Resumer {
	return &Resumer{
		store:      store,
		dispatcher: dispatcher,
		schedule:   schedule,
		log:        log.With("component", "scheduler").With("process", "resume_campaigns"),
	}
}

// Resume refreshes the subscribers gauge and dispatches every persisted
// campaign that is not already running.
func (r *Resumer) Resume(ctx context.Context) error {
	if count, err := r.store.CountSubscribers(ctx); err != nil {
		r.log.WarnContext(ctx, "failed to count subscribers", "error", err)
	} else {
		metrics.SetSubscribers(count)
	}

	campaigns, err := r.store.GetCampaigns(ctx)
	if err != nil {
		return fmt.Errorf("get campaigns: %w", err)
	}

	for _, c := range campaigns {
		if r.dispatcher.Dispatch(ctx, c) {
			r.log.InfoContext(ctx, "resumed campaign", "slug", c.Slug, "started_at", c.StartedAt)
		}
	}
	return nil
}

// Start resumes once immediately, then on the cron schedule until ctx is
// done. An empty schedule only runs the initial pass.
func (r *Resumer) Start(ctx context.Context) error {
	r.run(ctx)
	if r.schedule == "" {
		r.log.InfoContext(ctx, "resume schedule is empty, periodic resume disabled")
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(r.schedule, func() { r.run(ctx) }); err != nil {
		return fmt.Errorf("add resume job %q: %w", r.schedule, err)
	}

	r.log.InfoContext(ctx, "Starting scheduler", "schedule", r.schedule)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	r.log.InfoContext(ctx, "Stopped scheduler")
	return nil
}

func (r *Resumer) run(ctx context.Context) {
	if err := withRecovery(ctx, r.Resume, r.log); err != nil {
		r.log.ErrorContext(ctx, "Failed to run process", "error", err)
	}
}

func withRecovery(ctx context.Context, fn func(ctx context.Context) error, log *slog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "Recovered from panic", "error", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// ValidateSchedule reports whether schedule is a cron expression the resumer
// accepts.
func ValidateSchedule(schedule string) error {
	if schedule == "" {
		return nil
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("parse schedule %q: %w", schedule, err)
	}
	return nil
}
