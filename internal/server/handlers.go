package server

import (
	"fmt"
	"net/http"
	"strconv"

	tb "gopkg.in/telebot.v3"

	"github.com/himarplupi/bot-himarpl/internal/dal"
	"github.com/himarplupi/bot-himarpl/internal/secret"
)

const (
	headerBotToken    = "X-Telegram-Bot-Token"
	headerBotUsername = "X-Telegram-Bot-Username"
	headerSecretToken = "X-Telegram-Bot-Api-Secret-Token"
	headerAPIToken    = "X-Api-Token"
)

type (
	secretTokenResult struct {
		SecretToken string `json:"secretToken"`
	}

	notifyRequest struct {
		Slug   string `json:"slug"`
		Title  string `json:"title"`
		Author struct {
			Name     string `json:"name"`
			Username string `json:"username"`
		} `json:"author"`
	}

	notifyResult struct {
		Slug    string `json:"slug"`
		Started bool   `json:"started"`
	}
)

// handleSecretToken derives the webhook secret token for the bot named in the
// request headers.
func (s *Server) handleSecretToken(w http.ResponseWriter, r *http.Request) error {
	token := r.Header.Get(headerBotToken)
	username := r.Header.Get(headerBotUsername)
	if token == "" || username == "" {
		return newAPIError(http.StatusBadRequest, "Token or username not found")
	}

	writeJSON(w, http.StatusOK, secretTokenResult{
		SecretToken: secret.Derive(token, username, s.conf.BotSecret),
	})
	return nil
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) error {
	if !secret.Verify(s.secretToken, r.Header.Get(headerSecretToken)) {
		return errInvalidSecret
	}

	var update tb.Update
	if err := decodeJSON(w, r, &update); err != nil {
		return err
	}
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return errInvalidBody
	}

	s.logger(r.Context()).DebugContext(r.Context(), "update received", "update_id", update.ID, "chatID", msg.Chat.ID)
	s.messages.HandleMessage(r.Context(), msg)

	writeJSON(w, http.StatusOK, "Message sent to "+strconv.FormatInt(msg.Chat.ID, 10))
	return nil
}

// handleNotify starts the fan-out for a campaign and answers without waiting
// for it.
func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) error {
	if !secret.Verify(s.conf.APIToken, r.Header.Get(headerAPIToken)) {
		return errInvalidAPIToken
	}

	var req notifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	c := dal.Campaign{
		Slug:   req.Slug,
		Title:  req.Title,
		Author: dal.Author{Name: req.Author.Name, Username: req.Author.Username},
	}
	if err := c.Validate(); err != nil {
		return newAPIError(http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", unwrapValidation(err)))
	}

	started := s.dispatcher.Dispatch(s.ctx, c)
	s.logger(r.Context()).InfoContext(r.Context(), "notify requested", "slug", c.Slug, "started", started)

	writeJSON(w, http.StatusOK, notifyResult{Slug: c.Slug, Started: started})
	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) error {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger(r.Context()).ErrorContext(r.Context(), "storage ping failed", "error", err)
		return newAPIError(http.StatusServiceUnavailable, "Storage unavailable")
	}

	writeJSON(w, http.StatusOK, "ok")
	return nil
}

// unwrapValidation drops the ErrInvalidCampaign prefix from a joined
// validation error.
func unwrapValidation(err error) error {
	joined, ok := err.(interface{ Unwrap() []error }) //nolint:errorlint // joined errors only
	if !ok {
		return err
	}
	errs := joined.Unwrap()
	return errs[len(errs)-1]
}
