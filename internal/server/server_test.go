package server_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	tb "gopkg.in/telebot.v3"

	"github.com/himarplupi/bot-himarpl/internal/dal"
	"github.com/himarplupi/bot-himarpl/internal/ratelimit"
	"github.com/himarplupi/bot-himarpl/internal/secret"
	"github.com/himarplupi/bot-himarpl/internal/server"
	"github.com/himarplupi/bot-himarpl/internal/server/mocks"
	"github.com/himarplupi/bot-himarpl/internal/telegram"
	telegrammocks "github.com/himarplupi/bot-himarpl/internal/telegram/mocks"
)

const (
	botToken    = "123:abc"
	botUsername = "himarpl_bot"
	botSecret   = "s3cret"
	apiToken    = "api-token"
	chatID      = int64(777)
)

var (
	discard     = slog.New(slog.DiscardHandler)
	secretToken = secret.Derive(botToken, botUsername, botSecret)
)

type serverKey struct{}

type deps struct {
	limiter    ratelimit.Limiter
	messages   server.MessageHandler
	dispatcher server.Dispatcher
	store      server.Pinger
	ctx        context.Context
}

func newServer(t *testing.T, d deps) http.Handler {
	t.Helper()
	ctrl := gomock.NewController(t)
	if d.limiter == nil {
		d.limiter = ratelimit.NewLocal(ratelimit.Config{Requests: 100, Window: time.Minute})
	}
	if d.messages == nil {
		d.messages = mocks.NewMockMessageHandler(ctrl)
	}
	if d.dispatcher == nil {
		d.dispatcher = mocks.NewMockDispatcher(ctrl)
	}
	if d.store == nil {
		d.store = mocks.NewMockPinger(ctrl)
	}
	if d.ctx == nil {
		d.ctx = context.Background()
	}

	conf := server.Config{
		BotToken:          botToken,
		BotUsername:       botUsername,
		BotSecret:         botSecret,
		APIToken:          apiToken,
		TrustProxyHeaders: true,
	}
	return server.New(d.ctx, conf, d.limiter, d.messages, d.dispatcher, d.store, discard).Handler()
}

type response struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "10.0.0.1:4321"
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var res response
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	}
	return rec, res
}

func resultString(t *testing.T, res response) string {
	t.Helper()
	var s string
	require.NoError(t, json.Unmarshal(res.Result, &s))
	return s
}

func webhookHeaders() map[string]string {
	return map[string]string{"X-Telegram-Bot-Api-Secret-Token": secretToken}
}

func update(text string) string {
	return `{"update_id":1,"message":{"message_id":10,"date":1700000000,"text":"` + text + `",` +
		`"chat":{"id":777,"type":"private"},"from":{"id":777,"first_name":"Siti","last_name":"Aminah","username":"siti"}}}`
}

func TestSecretToken(t *testing.T) {
	h := newServer(t, deps{})

	t.Run("derives_token", func(t *testing.T) {
		rec, res := do(t, h, http.MethodGet, "/telegram/secretToken", "", map[string]string{
			"X-Telegram-Bot-Token":    botToken,
			"X-Telegram-Bot-Username": botUsername,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, res.OK)
		assert.Equal(t, "Success", res.Description)
		assert.JSONEq(t, `{"secretToken":"`+secretToken+`"}`, string(res.Result))
	})

	t.Run("missing_headers", func(t *testing.T) {
		rec, res := do(t, h, http.MethodGet, "/telegram/secretToken", "", map[string]string{
			"X-Telegram-Bot-Token": botToken,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, res.OK)
		assert.Equal(t, "Bad Request", res.Description)
		assert.Equal(t, "Token or username not found", resultString(t, res))
	})
}

func TestWebhook_Start(t *testing.T) {
	ctrl := gomock.NewController(t)
	responses := telegram.DefaultResponses()
	vars := telegram.Vars{"first_name": "Siti", "last_name": "Aminah", "username": "siti"}

	sender := telegrammocks.NewMockSender(ctrl)
	gomock.InOrder(
		sender.EXPECT().SendMessage(gomock.Any(), chatID, responses.Render(telegram.ResponseStartSuccess, vars), gomock.Nil()).Return(true),
		sender.EXPECT().SendMessage(gomock.Any(), chatID, responses.WithCTA(telegram.ResponseStartToCTA, vars), gomock.Nil()).Return(true),
	)
	handler := telegram.NewHandler(telegrammocks.NewMockSubscriptions(ctrl), sender, responses, discard)

	h := newServer(t, deps{messages: handler})
	rec, res := do(t, h, http.MethodPost, "/telegram/webhook", update("/start"), webhookHeaders())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, res.OK)
	assert.Equal(t, "Message sent to 777", resultString(t, res))
}

func TestWebhook_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		headers    map[string]string
		wantStatus int
		wantResult string
	}{
		{
			name:       "missing_secret",
			body:       update("/start"),
			wantStatus: http.StatusForbidden,
			wantResult: "Invalid secret token",
		},
		{
			name:       "wrong_secret",
			body:       update("/start"),
			headers:    map[string]string{"X-Telegram-Bot-Api-Secret-Token": secret.Derive(botToken, botUsername, "other")},
			wantStatus: http.StatusForbidden,
			wantResult: "Invalid secret token",
		},
		{
			name:       "malformed_json",
			body:       `{"message":`,
			headers:    webhookHeaders(),
			wantStatus: http.StatusBadRequest,
			wantResult: "Invalid request body",
		},
		{
			name:       "no_message",
			body:       `{"update_id":1}`,
			headers:    webhookHeaders(),
			wantStatus: http.StatusBadRequest,
			wantResult: "Invalid request body",
		},
		{
			name:       "message_without_chat",
			body:       `{"update_id":1,"message":{"message_id":1,"text":"/start"}}`,
			headers:    webhookHeaders(),
			wantStatus: http.StatusBadRequest,
			wantResult: "Invalid request body",
		},
		{
			name:       "body_too_large",
			body:       `{"update_id":1,"message":{"text":"` + strings.Repeat("a", 1<<20) + `"}}`,
			headers:    webhookHeaders(),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantResult: "Request body too large",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// the mock handler fails the test on any call
			h := newServer(t, deps{})
			rec, res := do(t, h, http.MethodPost, "/telegram/webhook", tt.body, tt.headers)

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.False(t, res.OK)
			assert.Equal(t, tt.wantResult, resultString(t, res))
		})
	}
}

func TestWebhook_PanicIsInternalError(t *testing.T) {
	ctrl := gomock.NewController(t)
	messages := mocks.NewMockMessageHandler(ctrl)
	messages.EXPECT().HandleMessage(gomock.Any(), gomock.Any()).Do(func(context.Context, *tb.Message) {
		panic("boom")
	})

	h := newServer(t, deps{messages: messages})
	rec, res := do(t, h, http.MethodPost, "/telegram/webhook", update("/start"), webhookHeaders())

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, res.OK)
	assert.Equal(t, "Internal server error", resultString(t, res))
}

func TestNotify(t *testing.T) {
	body := `{"slug":"mengenal-himarpl","title":"Mengenal HIMARPL","author":{"name":"Budi Santoso","username":"budi"}}`
	want := dal.Campaign{
		Slug:   "mengenal-himarpl",
		Title:  "Mengenal HIMARPL",
		Author: dal.Author{Name: "Budi Santoso", Username: "budi"},
	}

	t.Run("dispatches_in_server_context", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		lifetime := context.WithValue(context.Background(), serverKey{}, "lifetime")

		dispatcher := mocks.NewMockDispatcher(ctrl)
		dispatcher.EXPECT().Dispatch(gomock.Any(), want).DoAndReturn(func(ctx context.Context, _ dal.Campaign) bool {
			assert.Equal(t, "lifetime", ctx.Value(serverKey{}))
			return true
		})

		h := newServer(t, deps{dispatcher: dispatcher, ctx: lifetime})
		rec, res := do(t, h, http.MethodPost, "/telegram/notify", body, map[string]string{"X-Api-Token": apiToken})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, res.OK)
		assert.JSONEq(t, `{"slug":"mengenal-himarpl","started":true}`, string(res.Result))
	})

	t.Run("already_in_flight", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		dispatcher := mocks.NewMockDispatcher(ctrl)
		dispatcher.EXPECT().Dispatch(gomock.Any(), want).Return(false)

		h := newServer(t, deps{dispatcher: dispatcher})
		rec, res := do(t, h, http.MethodPost, "/telegram/notify", body, map[string]string{"X-Api-Token": apiToken})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"slug":"mengenal-himarpl","started":false}`, string(res.Result))
	})

	t.Run("unauthorized", func(t *testing.T) {
		h := newServer(t, deps{})
		rec, res := do(t, h, http.MethodPost, "/telegram/notify", body, map[string]string{"X-Api-Token": "wrong"})

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Unauthorized", res.Description)
		assert.Equal(t, "Invalid API token", resultString(t, res))
	})

	t.Run("invalid_body", func(t *testing.T) {
		h := newServer(t, deps{})
		rec, res := do(t, h, http.MethodPost, "/telegram/notify", `{"slug":"x","title":"y","author":{"name":"z"}}`, map[string]string{"X-Api-Token": apiToken})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid request body: author username is required", resultString(t, res))
	})
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewLocal(ratelimit.Config{Requests: 3, Window: time.Hour})
	h := newServer(t, deps{limiter: limiter})

	for range 3 {
		rec, _ := do(t, h, http.MethodPost, "/telegram/notify", "{}", map[string]string{"X-Api-Token": "wrong"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec, res := do(t, h, http.MethodPost, "/telegram/notify", "{}", map[string]string{"X-Api-Token": apiToken})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too Many Requests", res.Description)
	assert.Equal(t, "Rate limit exceeded", resultString(t, res))

	// another client still has its quota
	req := httptest.NewRequest(http.MethodGet, "/telegram/secretToken", nil)
	req.Header.Set("X-Real-IP", "10.0.0.2")
	other := httptest.NewRecorder()
	h.ServeHTTP(other, req)
	assert.Equal(t, http.StatusBadRequest, other.Code)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, assert.AnError
}

func TestRateLimit_BackendError(t *testing.T) {
	h := newServer(t, deps{limiter: failingLimiter{}})

	rec, res := do(t, h, http.MethodPost, "/telegram/webhook", update("/start"), webhookHeaders())
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, res.OK)
}

func TestMethodNotAllowed(t *testing.T) {
	h := newServer(t, deps{})

	for _, tt := range []struct{ method, path string }{
		{http.MethodGet, "/telegram/webhook"},
		{http.MethodGet, "/telegram/notify"},
		{http.MethodPost, "/telegram/secretToken"},
		{http.MethodDelete, "/telegram/webhook"},
	} {
		rec, res := do(t, h, tt.method, tt.path, "", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", tt.method, tt.path)
		assert.False(t, res.OK)
	}
}

func TestNotFound(t *testing.T) {
	h := newServer(t, deps{})
	rec, res := do(t, h, http.MethodGet, "/nope", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, res.OK)
}

func TestHealthz(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockPinger(ctrl)
		store.EXPECT().Ping(gomock.Any()).Return(nil)

		rec, res := do(t, newServer(t, deps{store: store}), http.MethodGet, "/healthz", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, res.OK)
	})

	t.Run("storage_down", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockPinger(ctrl)
		store.EXPECT().Ping(gomock.Any()).Return(assert.AnError)

		rec, res := do(t, newServer(t, deps{store: store}), http.MethodGet, "/healthz", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "Storage unavailable", resultString(t, res))
	})
}

func TestRequestID(t *testing.T) {
	h := newServer(t, deps{})

	rec, _ := do(t, h, http.MethodGet, "/nope", "", nil)
	_, err := uuid.Parse(rec.Header().Get(server.RequestIDHeader))
	require.NoError(t, err)

	id := uuid.NewString()
	rec, _ = do(t, h, http.MethodGet, "/nope", "", map[string]string{server.RequestIDHeader: id})
	assert.Equal(t, id, rec.Header().Get(server.RequestIDHeader))

	rec, _ = do(t, h, http.MethodGet, "/nope", "", map[string]string{server.RequestIDHeader: "not\na uuid"})
	assert.NotEqual(t, "not\na uuid", rec.Header().Get(server.RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	h := newServer(t, deps{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
