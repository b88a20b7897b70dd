package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"grindhouse/scoreboard/internal/logging"
	"grindhouse/scoreboard/internal/metrics"
)

func TestMetricsMiddleware_AccessLogCarriesRequestFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := logging.ReplaceGlobal(zap.New(core))
	defer restore()

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(MetricsMiddleware(metrics.NewMetricsRegistry(prometheus.NewRegistry())))
	r.Get("/api/rooms/{roomID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/abc", nil)
	req.Header.Set(chimw.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTeapot, rec.Code)

	entries := logs.FilterMessage("HTTP request completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, http.MethodGet, fields["method"])
	assert.Equal(t, "/api/rooms/{roomID}", fields["endpoint"])
	assert.EqualValues(t, http.StatusTeapot, fields["status_code"])
}
