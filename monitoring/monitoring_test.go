package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAttempt(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordAttempt("redirected")
	m.RecordAttempt("redirected")
	m.RecordAttempt("persistence_error")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CheckoutAttempts.WithLabelValues("redirected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckoutAttempts.WithLabelValues("persistence_error")))
}

func TestObserveStage(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveStage("persisting", 20*time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(m.StageDuration))
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(prometheus.NewRegistry())
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/ping", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestNewSentryReporter(t *testing.T) {
	r, err := NewSentryReporter("", "test")
	require.NoError(t, err)
	assert.IsType(t, NopReporter{}, r)
	r.Report(errors.New("ignored"), nil)

	_, err = NewSentryReporter("not a dsn", "test")
	assert.Error(t, err)
}
