package telegram

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tb "gopkg.in/telebot.v3"
)

const WebhookPath = "/telegram/webhook"

type BotConfig struct {
	Token   string
	APIURL  string
	Timeout time.Duration
}

// Bot wraps the provider API for both message delivery and the one-off
// administrative calls (webhook and command registration). It never polls.
type Bot struct {
	api *tb.Bot

	log *slog.Logger
}

func NewBot(conf BotConfig, log *slog.Logger) (*Bot, error) {
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second //nolint:mnd // it's ok
	}

	api, err := tb.NewBot(tb.Settings{
		URL:     conf.APIURL,
		Token:   conf.Token,
		Offline: true,
		Client:  &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &Bot{
		api: api,
		log: log.With("component", "bot"),
	}, nil
}

// Client exposes the send call for the Messenger.
func (b *Bot) Client() Client {
	return b.api
}

// SetWebhook registers baseURL + WebhookPath with the provider; updates will
// carry secretToken in the X-Telegram-Bot-Api-Secret-Token header.
func (b *Bot) SetWebhook(baseURL, secretToken string) (string, error) {
	url := strings.TrimRight(baseURL, "/") + WebhookPath
	err := b.api.SetWebhook(&tb.Webhook{
		SecretToken: secretToken,
		Endpoint:    &tb.WebhookEndpoint{PublicURL: url},
	})
	if err != nil {
		return "", fmt.Errorf("set webhook: %w", err)
	}

	b.log.Info("webhook registered", "url", url)
	return url, nil
}

func (b *Bot) DeleteWebhook(dropPending bool) error {
	if err := b.api.RemoveWebhook(dropPending); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	b.log.Info("webhook removed", "drop_pending", dropPending)
	return nil
}

// SetCommands replaces the registered command list with the dispatcher's
// command table.
func (b *Bot) SetCommands() ([]tb.Command, error) {
	if err := b.api.DeleteCommands(); err != nil {
		return nil, fmt.Errorf("delete commands: %w", err)
	}

	cmds := Commands()
	if err := b.api.SetCommands(cmds); err != nil {
		return nil, fmt.Errorf("set commands: %w", err)
	}

	b.log.Info("commands registered", "count", len(cmds))
	return cmds, nil
}

func (b *Bot) DeleteCommands() error {
	if err := b.api.DeleteCommands(); err != nil {
		return fmt.Errorf("delete commands: %w", err)
	}

	b.log.Info("commands removed")
	return nil
}
