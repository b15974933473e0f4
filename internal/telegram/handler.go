package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	tb "gopkg.in/telebot.v3"

	"github.com/himarplupi/bot-himarpl/internal/dal"
	"github.com/himarplupi/bot-himarpl/internal/metrics"
	"github.com/himarplupi/bot-himarpl/internal/service"
)

//go:generate mockgen -package mocks -destination mocks/subscriptions.go . Subscriptions

//go:generate mockgen -package mocks -destination mocks/sender.go . Sender

const (
	commandPrefix = "/"

	commandStart      = "start"
	commandNotifyMe   = "notifyme"
	commandUnnotifyMe = "unnotifyme"

	unknownCommandLabel = "unknown"
)

type (
	Subscriptions interface {
		IsSubscribed(ctx context.Context, chatID int64) (bool, error)
		Subscribe(ctx context.Context, sub dal.Subscriber) error
		Unsubscribe(ctx context.Context, chatID int64) error
	}

	// Sender is the outbound primitive used by the handler, implemented by
	// *Messenger.
	Sender interface {
		SendMessage(ctx context.Context, chatID int64, text string, opts *tb.SendOptions) bool
	}

	command struct {
		name        string
		description string
		handle      func(h *Handler, ctx context.Context, msg *tb.Message)
	}
)

// commands is the fixed dispatch table; incoming text must match a name
// exactly.
var commands = []command{
	{name: commandStart, description: "Memulai bot HIMARPL", handle: (*Handler).start},
	{name: commandNotifyMe, description: "Tidak ingin ketinggalan info terbaru dari HIMARPL", handle: (*Handler).notifyMe},
	{name: commandUnnotifyMe, description: "Berhenti mendapatkan info terbaru dari HIMARPL :(", handle: (*Handler).unnotifyMe},
}

// Commands returns the command table in the form setMyCommands expects.
func Commands() []tb.Command {
	res := make([]tb.Command, 0, len(commands))
	for _, c := range commands {
		res = append(res, tb.Command{Text: c.name, Description: c.description})
	}
	return res
}

type Handler struct {
	subscriptions Subscriptions
	sender        Sender
	responses     *Responses

	log *slog.Logger
}

func NewHandler(subscriptions Subscriptions, sender Sender, responses *Responses, log *slog.Logger) *Handler {
	return &Handler{
		subscriptions: subscriptions,
		sender:        sender,
		responses:     responses,
		log:           log.With("component", "telegram").With("service", "handler"),
	}
}

// HandleMessage reacts to an inbound chat message: commands are dispatched,
// plain text from a known sender gets the greeting.
func (h *Handler) HandleMessage(ctx context.Context, msg *tb.Message) {
	if strings.HasPrefix(msg.Text, commandPrefix) {
		h.ListenCommands(ctx, msg, msg.Text)
		return
	}
	if msg.Sender == nil {
		h.log.DebugContext(ctx, "ignoring message without sender", "chatID", msg.Chat.ID)
		return
	}

	h.send(ctx, msg, h.responses.WithCTA(ResponseGreeting, senderVars(msg)))
}

// ListenCommands dispatches rawText against the command table. Text without
// the command prefix is ignored.
func (h *Handler) ListenCommands(ctx context.Context, msg *tb.Message, rawText string) {
	if !strings.HasPrefix(rawText, commandPrefix) {
		return
	}
	incoming := strings.TrimPrefix(rawText, commandPrefix)

	for _, c := range commands {
		if c.name == incoming {
			metrics.RecordCommand(c.name)
			h.log.DebugContext(ctx, "command received", "command", c.name, "chatID", msg.Chat.ID)
			c.handle(h, ctx, msg)
			return
		}
	}

	metrics.RecordCommand(unknownCommandLabel)
	h.log.DebugContext(ctx, "unknown command", "command", incoming, "chatID", msg.Chat.ID)

	vars := senderVars(msg)
	vars["command"] = incoming
	h.send(ctx, msg, h.responses.WithCTA(ResponseCommandNotFound, vars))
}

func (h *Handler) start(ctx context.Context, msg *tb.Message) {
	vars := senderVars(msg)
	h.send(ctx, msg, h.responses.Render(ResponseStartSuccess, vars))
	h.send(ctx, msg, h.responses.WithCTA(ResponseStartToCTA, vars))
}

func (h *Handler) notifyMe(ctx context.Context, msg *tb.Message) {
	chatID := msg.Chat.ID
	vars := senderVars(msg)

	subscribed, err := h.subscriptions.IsSubscribed(ctx, chatID)
	if err != nil {
		h.log.ErrorContext(ctx, "failed to check if chat is subscribed", "chatID", chatID, "error", err)
		h.send(ctx, msg, h.responses.Render(ResponseNotifyFailed, vars))
		return
	}
	if subscribed {
		h.send(ctx, msg, h.responses.Render(ResponseNotifyNothing, vars))
		return
	}

	err = h.subscriptions.Subscribe(ctx, newSubscriber(msg))
	switch {
	case errors.Is(err, service.ErrAlreadySubscribed):
		h.send(ctx, msg, h.responses.Render(ResponseNotifyNothing, vars))
		return
	case err != nil:
		h.log.ErrorContext(ctx, "failed to subscribe", "chatID", chatID, "error", err)
		h.send(ctx, msg, h.responses.Render(ResponseNotifyFailed, vars))
		return
	}

	h.log.InfoContext(ctx, "chat subscribed", "chatID", chatID)
	h.send(ctx, msg, h.responses.Render(ResponseNotifySuccess, vars))
	h.send(ctx, msg, h.responses.WithCTA(ResponseNotifyToCTA, vars))
}

func (h *Handler) unnotifyMe(ctx context.Context, msg *tb.Message) {
	chatID := msg.Chat.ID
	vars := senderVars(msg)

	subscribed, err := h.subscriptions.IsSubscribed(ctx, chatID)
	if err != nil {
		h.log.ErrorContext(ctx, "failed to check if chat is subscribed", "chatID", chatID, "error", err)
		h.send(ctx, msg, h.responses.Render(ResponseUnnotifyFailed, vars))
		return
	}
	if !subscribed {
		h.send(ctx, msg, h.responses.Render(ResponseUnnotifyNothing, vars))
		return
	}

	err = h.subscriptions.Unsubscribe(ctx, chatID)
	switch {
	case errors.Is(err, service.ErrNotSubscribed):
		h.send(ctx, msg, h.responses.Render(ResponseUnnotifyNothing, vars))
		return
	case err != nil:
		h.log.ErrorContext(ctx, "failed to unsubscribe", "chatID", chatID, "error", err)
		h.send(ctx, msg, h.responses.Render(ResponseUnnotifyFailed, vars))
		return
	}

	h.log.InfoContext(ctx, "chat unsubscribed", "chatID", chatID)
	h.send(ctx, msg, h.responses.Render(ResponseUnnotifySuccess, vars))
	h.send(ctx, msg, h.responses.WithCTA(ResponseUnnotifyToCTA, vars))
}

func (h *Handler) send(ctx context.Context, msg *tb.Message, text string) {
	h.sender.SendMessage(ctx, msg.Chat.ID, text, nil)
}

func senderVars(msg *tb.Message) Vars {
	vars := Vars{"first_name": "", "last_name": "", "username": ""}
	if msg.Sender != nil {
		vars["first_name"] = msg.Sender.FirstName
		vars["last_name"] = msg.Sender.LastName
		vars["username"] = msg.Sender.Username
	}
	return vars
}

func newSubscriber(msg *tb.Message) dal.Subscriber {
	sub := dal.Subscriber{ChatID: msg.Chat.ID}
	if msg.Sender != nil {
		sub.FirstName = msg.Sender.FirstName
		sub.LastName = msg.Sender.LastName
		sub.Username = msg.Sender.Username
	}
	return sub
}
