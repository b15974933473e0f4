package telegram

import (
	"context"
	"errors"
	"log/slog"

	tb "gopkg.in/telebot.v3"

	"github.com/himarplupi/bot-himarpl/internal/metrics"
)

//go:generate mockgen -package mocks -destination mocks/client.go . Client

// Client is the provider send call, satisfied by *telebot.Bot.
type Client interface {
	Send(to tb.Recipient, what interface{}, opts ...interface{}) (*tb.Message, error)
}

// UnreachableFunc is called when the provider reports that a chat can no
// longer receive messages.
type UnreachableFunc func(ctx context.Context, chatID int64)

// Messenger is the single outbound send primitive. Delivery is best effort:
// failures are logged and reported as false, never returned as errors.
type Messenger struct {
	client    Client
	parseMode tb.ParseMode

	onUnreachable UnreachableFunc

	log *slog.Logger
}

func NewMessenger(client Client, parseMode tb.ParseMode, log *slog.Logger) *Messenger {
	return &Messenger{
		client:    client,
		parseMode: parseMode,
		log:       log.With("component", "telegram").With("service", "messenger"),
	}
}

// OnUnreachable registers fn to run when a chat has blocked the bot, was
// deactivated or no longer exists.
func (m *Messenger) OnUnreachable(fn UnreachableFunc) {
	m.onUnreachable = fn
}

// SendMessage sends text to chatID. The table's parse mode is applied unless
// opts sets one.
func (m *Messenger) SendMessage(ctx context.Context, chatID int64, text string, opts *tb.SendOptions) bool {
	options := &tb.SendOptions{}
	if opts != nil {
		o := *opts
		options = &o
	}
	if options.ParseMode == tb.ModeDefault {
		options.ParseMode = m.parseMode
	}

	if _, err := m.client.Send(tb.ChatID(chatID), text, options); err != nil {
		if isUnreachable(err) {
			metrics.RecordTelegramMessage(metrics.ResultUnreachable)
			m.log.WarnContext(ctx, "chat is unreachable", "chatID", chatID, "error", err)
			if m.onUnreachable != nil {
				m.onUnreachable(ctx, chatID)
			}
			return false
		}

		metrics.RecordTelegramMessage(metrics.ResultFailed)
		m.log.ErrorContext(ctx, "failed to send message", "chatID", chatID, "error", err)
		return false
	}

	metrics.RecordTelegramMessage(metrics.ResultSent)
	return true
}

func isUnreachable(err error) bool {
	return errors.Is(err, tb.ErrBlockedByUser) ||
		errors.Is(err, tb.ErrUserIsDeactivated) ||
		errors.Is(err, tb.ErrChatNotFound) ||
		errors.Is(err, tb.ErrKickedFromGroup) ||
		errors.Is(err, tb.ErrKickedFromSuperGroup)
}
