package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordSweep(t *testing.T) {
	m := NewMetrics("helpdesk")
	m.RecordSweep(5, 2, 1, 150*time.Millisecond)
	m.RecordSweep(3, 1, 0, 20*time.Millisecond)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.slaWarnings))
	assert.Equal(t, 8.0, testutil.ToFloat64(m.sweepTickets.WithLabelValues("scanned")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sweepTickets.WithLabelValues("failed")))
}

func TestMetricsNotificationsAndDrops(t *testing.T) {
	m := NewMetrics("helpdesk")
	m.RecordNotification("ticket.routed", "delivered")
	m.RecordNotification("ticket.routed", "failed")
	m.RecordNotification("ticket.routed", "delivered")
	m.RecordQueueDrop()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.notifications.WithLabelValues("ticket.routed", "delivered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queueDropped))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/tickets", "GET", 200, time.Millisecond)
		m.RecordError("/tickets", "GET", "NOT_FOUND")
		m.RecordSweep(1, 1, 0, time.Second)
		m.RecordQueueDrop()
	})
}

func TestMetricsHandlerServesRegistry(t *testing.T) {
	m := NewMetrics("helpdesk")
	m.RecordRequest("/tickets/:id", "GET", 200, 12*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `helpdesk_http_requests_total{method="GET",route="/tickets/:id",status="200"} 1`)
}
