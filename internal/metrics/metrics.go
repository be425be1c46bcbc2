package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeloom_api_requests_total",
			Help: "Total number of API requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codeloom_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ChatConnectedClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "codeloom_chat_connected_clients",
			Help: "Number of sockets currently registered with the chat hub",
		},
	)

	ChatFramesBroadcast = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeloom_chat_frames_broadcast_total",
			Help: "Frames fanned out by the chat hub, by frame type",
		},
		[]string{"type"},
	)

	ChatClientsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "codeloom_chat_clients_dropped_total",
			Help: "Clients evicted because their send buffer was full",
		},
	)

	BillingEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeloom_billing_events_total",
			Help: "Billing webhook events by type and outcome",
		},
		[]string{"type", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(ChatConnectedClients)
	prometheus.MustRegister(ChatFramesBroadcast)
	prometheus.MustRegister(ChatClientsDropped)
	prometheus.MustRegister(BillingEventsTotal)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures an operation and reports it to a histogram.
type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDurationVec records the elapsed time on a labelled histogram.
func (t *Timer) ObserveDurationVec(h *prometheus.HistogramVec, labels ...string) {
	h.WithLabelValues(labels...).Observe(t.Duration().Seconds())
}
