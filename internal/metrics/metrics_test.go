package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerObserveDurationVec(t *testing.T) {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "test_duration_seconds",
		Help:    "Test duration histogram",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	timer := NewTimer()
	time.Sleep(5 * time.Millisecond)
	timer.ObserveDurationVec(h, "GET")

	assert.GreaterOrEqual(t, timer.Duration(), 5*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(h))
}

func TestHandlerExposesChatGauge(t *testing.T) {
	ChatConnectedClients.Set(3)
	defer ChatConnectedClients.Set(0)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "codeloom_chat_connected_clients 3")
}
