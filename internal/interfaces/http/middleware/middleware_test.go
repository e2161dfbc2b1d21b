package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/time/rate"

	"github.com/turtacn/riskengine/pkg/constants"
	"github.com/turtacn/riskengine/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type hitCounter struct{ scopes []string }

func (h *hitCounter) RecordRateLimitHit(scope string) { h.scopes = append(h.scopes, scope) }

func perform(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Error.Code
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) {
		fromCtx, _ := c.Request.Context().Value(constants.ContextKeyRequestID).(string)
		c.String(http.StatusOK, c.GetString(string(constants.ContextKeyRequestID))+"|"+fromCtx)
	})

	t.Run("propagates caller id", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/ping", map[string]string{RequestIDHeader: "req-123"})
		assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "req-123|req-123", w.Body.String())
	})

	t.Run("generates id when absent", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/ping", nil)
		id := w.Header().Get(RequestIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id+"|"+id, w.Body.String())
	})
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(logger.NewNoopLogger()))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := perform(r, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, string(constants.ErrCodeInternal), errorCode(t, w))
}

func TestObservabilityMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	total := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "http_requests_total"}, []string{"method", "path", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "http_request_duration_seconds"}, []string{"method", "path"})
	reg.MustRegister(total, duration)

	r := gin.New()
	r.Use(ObservabilityMiddleware(noop.NewTracerProvider().Tracer("test"), total, duration))
	r.GET("/alerts/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	perform(r, http.MethodGet, "/alerts/a1", nil)
	perform(r, http.MethodGet, "/alerts/a2", nil)
	perform(r, http.MethodGet, "/missing", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(total.WithLabelValues("GET", "/alerts/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(total.WithLabelValues("GET", "not_found", "404")))
	assert.Equal(t, 2, testutil.CollectAndCount(duration))
}

func TestIPRateLimiter_Allow(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(rate.Limit(1), 2)
	l.now = func() time.Time { return now }

	ok, _ := l.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = l.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, wait := l.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait)

	ok, _ = l.Allow("10.0.0.2")
	assert.True(t, ok, "buckets are per client")

	now = now.Add(time.Second)
	ok, _ = l.Allow("10.0.0.1")
	assert.True(t, ok, "bucket refills over time")
}

func TestIPRateLimiter_EvictsIdleVisitors(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(rate.Limit(1), 1)
	l.now = func() time.Time { return now }

	l.Allow("10.0.0.1")
	now = now.Add(visitorIdleTTL + time.Minute)
	l.Allow("10.0.0.2")

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.visitors, "10.0.0.1")
	assert.Contains(t, l.visitors, "10.0.0.2")
}

func TestPerMinute(t *testing.T) {
	assert.Equal(t, rate.Inf, PerMinute(0))
	assert.Equal(t, rate.Every(10*time.Second), PerMinute(6))
}

func TestRateLimitMiddleware(t *testing.T) {
	hits := &hitCounter{}
	r := gin.New()
	r.Use(RequestID())
	r.POST("/portfolio", RateLimitMiddleware(NewIPRateLimiter(PerMinute(1), 1), "portfolio", hits, logger.NewNoopLogger()),
		func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := perform(r, http.MethodPost, "/portfolio", nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = perform(r, http.MethodPost, "/portfolio", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, string(constants.ErrCodeRateLimitExceeded), errorCode(t, w))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, []string{"portfolio"}, hits.scopes)
}

func newIdempotentRouter(t *testing.T, client redis.UniversalClient, status int) (*gin.Engine, *int) {
	t.Helper()
	calls := 0
	r := gin.New()
	r.Use(IdempotencyMiddleware(client, time.Hour, logger.NewNoopLogger()))
	r.POST("/alerts/:id/resolve", func(c *gin.Context) {
		calls++
		c.Status(status)
	})
	return r, &calls
}

func TestIdempotencyMiddleware(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	t.Run("duplicate key is rejected", func(t *testing.T) {
		r, calls := newIdempotentRouter(t, client, http.StatusOK)
		headers := map[string]string{IdempotencyKeyHeader: "k-1"}

		assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/alerts/a1/resolve", headers).Code)
		w := perform(r, http.MethodPost, "/alerts/a1/resolve", headers)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, string(constants.ErrCodeInvalidTransition), errorCode(t, w))
		assert.Equal(t, 1, *calls)
	})

	t.Run("requests without key pass", func(t *testing.T) {
		r, calls := newIdempotentRouter(t, client, http.StatusOK)
		perform(r, http.MethodPost, "/alerts/a2/resolve", nil)
		perform(r, http.MethodPost, "/alerts/a2/resolve", nil)
		assert.Equal(t, 2, *calls)
	})

	t.Run("server error releases key", func(t *testing.T) {
		r, calls := newIdempotentRouter(t, client, http.StatusServiceUnavailable)
		headers := map[string]string{IdempotencyKeyHeader: "k-retry"}
		perform(r, http.MethodPost, "/alerts/a3/resolve", headers)
		perform(r, http.MethodPost, "/alerts/a3/resolve", headers)
		assert.Equal(t, 2, *calls)
	})

	t.Run("oversized key is rejected", func(t *testing.T) {
		r, calls := newIdempotentRouter(t, client, http.StatusOK)
		w := perform(r, http.MethodPost, "/alerts/a4/resolve",
			map[string]string{IdempotencyKeyHeader: strings.Repeat("x", 300)})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, *calls)
	})

	t.Run("key expires after ttl", func(t *testing.T) {
		r, calls := newIdempotentRouter(t, client, http.StatusOK)
		headers := map[string]string{IdempotencyKeyHeader: "k-ttl"}
		perform(r, http.MethodPost, "/alerts/a5/resolve", headers)
		mr.FastForward(2 * time.Hour)
		perform(r, http.MethodPost, "/alerts/a5/resolve", headers)
		assert.Equal(t, 2, *calls)
	})
}

func TestIdempotencyMiddleware_FailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	r, calls := newIdempotentRouter(t, client, http.StatusOK)
	headers := map[string]string{IdempotencyKeyHeader: "k-down"}
	perform(r, http.MethodPost, "/alerts/a1/resolve", headers)
	perform(r, http.MethodPost, "/alerts/a1/resolve", headers)
	assert.Equal(t, 2, *calls)
}
