package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Freeeeeet/tutor_booking/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthz(t *testing.T) {
	tests := []struct {
		name string
		ping error
		want int
	}{
		{name: "healthy", want: http.StatusOK},
		{name: "database down", ping: errors.New("dial tcp: refused"), want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(pingFunc(func(context.Context) error { return tt.ping }), prometheus.NewRegistry())

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewCollector(reg).RecordTransition("canceled")
	router := NewRouter(pingFunc(func(context.Context) error { return nil }), reg)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tutor_booking_transitions_total{status="canceled"} 1`)
}
