// Package metrics defines the Prometheus collectors of the bot.
//
// Metric naming follows Prometheus conventions:
//   - bot_ prefix for all custom metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSent        = "sent"
	ResultFailed      = "failed"
	ResultUnreachable = "unreachable"
)

// Registry holds every collector below plus the Go and process collectors.
var Registry = prometheus.NewRegistry()

var (
	// TelegramMessagesTotal counts outbound sendMessage calls by result.
	TelegramMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_telegram_messages_total",
			Help: "Total outbound Telegram messages by result.",
		},
		[]string{"result"},
	)

	// HTTPRequestsTotal counts handled requests by route and status code.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_http_requests_total",
			Help: "Total HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	// HTTPRequestDurationSeconds observes request latency by route.
	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// RateLimitedTotal counts requests rejected by the rate limiter.
	RateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_rate_limited_total",
			Help: "Total requests rejected by the rate limiter.",
		},
		[]string{"route"},
	)

	// CommandsTotal counts dispatched commands; unknown commands share one label.
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total chat commands dispatched.",
		},
		[]string{"command"},
	)

	CampaignBatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_campaign_batches_total",
			Help: "Total notification batches processed.",
		},
	)

	CampaignDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_campaign_deliveries_total",
			Help: "Total notification deliveries by result.",
		},
		[]string{"result"},
	)

	CampaignsCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_campaigns_completed_total",
			Help: "Total campaigns that reached every subscriber.",
		},
	)

	// CampaignsInFlight is the number of fan-out loops currently running.
	CampaignsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_campaigns_in_flight",
			Help: "Number of notification campaigns currently running.",
		},
	)

	// Subscribers is refreshed on every resume pass.
	Subscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_subscribers",
			Help: "Number of chats subscribed to notifications.",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		TelegramMessagesTotal,
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		RateLimitedTotal,
		CommandsTotal,
		CampaignBatchesTotal,
		CampaignDeliveriesTotal,
		CampaignsCompletedTotal,
		CampaignsInFlight,
		Subscribers,
	)
}

// Handler serves the exposition format for Registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// RecordTelegramMessage records a single sendMessage outcome.
func RecordTelegramMessage(result string) {
	TelegramMessagesTotal.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records a completed request.
func RecordHTTPRequest(route string, code int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	HTTPRequestDurationSeconds.WithLabelValues(route).Observe(duration.Seconds())
}

func RecordRateLimited(route string) {
	RateLimitedTotal.WithLabelValues(route).Inc()
}

func RecordCommand(command string) {
	CommandsTotal.WithLabelValues(command).Inc()
}

// RecordBatch records one processed batch and its per-recipient results.
func RecordBatch(sent, failed int) {
	CampaignBatchesTotal.Inc()
	CampaignDeliveriesTotal.WithLabelValues(ResultSent).Add(float64(sent))
	CampaignDeliveriesTotal.WithLabelValues(ResultFailed).Add(float64(failed))
}

func RecordCampaignCompleted() {
	CampaignsCompletedTotal.Inc()
}

func SetSubscribers(n int) {
	Subscribers.Set(float64(n))
}
