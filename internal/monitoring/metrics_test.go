package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics()

	m.RecordMessageSent("web")
	m.RecordMessageSent("web")
	m.RecordMessageSent("smtp")
	m.RecordNotificationRequest("unread")
	m.RecordHTTPRequest("POST", "/notifications", "200", 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.MessagesSent.WithLabelValues("web")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesSent.WithLabelValues("smtp")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationRequests.WithLabelValues("unread")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/notifications", "200")))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	first := NewMetrics()
	second := NewMetrics()

	first.RecordPanic()
	assert.Equal(t, 1.0, testutil.ToFloat64(first.PanicsTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(second.PanicsTotal))
}

func TestMetrics_HTTPHandler(t *testing.T) {
	m := NewMetrics()
	m.RecordUserRegistered()

	rec := httptest.NewRecorder()
	m.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tradyfit_users_registered_total 1")
}
