package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTelegramMessage(t *testing.T) {
	before := testutil.ToFloat64(TelegramMessagesTotal.WithLabelValues(ResultFailed))

	RecordTelegramMessage(ResultFailed)
	RecordTelegramMessage(ResultFailed)

	assert.Equal(t, before+2, testutil.ToFloat64(TelegramMessagesTotal.WithLabelValues(ResultFailed)))
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/telegram/webhook", "403"))

	RecordHTTPRequest("/telegram/webhook", http.StatusForbidden, 15*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/telegram/webhook", "403")))
}

func TestRecordBatch(t *testing.T) {
	batches := testutil.ToFloat64(CampaignBatchesTotal)
	sent := testutil.ToFloat64(CampaignDeliveriesTotal.WithLabelValues(ResultSent))
	failed := testutil.ToFloat64(CampaignDeliveriesTotal.WithLabelValues(ResultFailed))

	RecordBatch(24, 1)

	assert.Equal(t, batches+1, testutil.ToFloat64(CampaignBatchesTotal))
	assert.Equal(t, sent+24, testutil.ToFloat64(CampaignDeliveriesTotal.WithLabelValues(ResultSent)))
	assert.Equal(t, failed+1, testutil.ToFloat64(CampaignDeliveriesTotal.WithLabelValues(ResultFailed)))
}

func TestSetSubscribers(t *testing.T) {
	SetSubscribers(42)
	assert.Equal(t, 42.0, testutil.ToFloat64(Subscribers))

	SetSubscribers(41)
	assert.Equal(t, 41.0, testutil.ToFloat64(Subscribers))
}

func TestHandler(t *testing.T) {
	RecordCommand("start")
	RecordRateLimited("/telegram/notify")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `bot_commands_total{command="start"}`)
	assert.Contains(t, string(body), `bot_rate_limited_total{route="/telegram/notify"}`)
	assert.Contains(t, string(body), "go_goroutines")
}
