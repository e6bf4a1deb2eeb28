// Package metrics exposes Prometheus counters for booking outcomes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rejection reasons recorded by RecordBookingRejected.
const (
	ReasonQuota      = "quota"
	ReasonConflict   = "conflict"
	ReasonValidation = "validation"
	ReasonStore      = "store"
)

// Recorder is what the services report to.
type Recorder interface {
	RecordBookingCreated()
	RecordBookingRejected(reason string)
	RecordTransition(status string)
	RecordInboxRecompute(duration time.Duration)
}

type Collector struct {
	created     prometheus.Counter
	rejected    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	inbox       prometheus.Histogram
}

// NewCollector registers the booking metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tutor_booking_created_total",
			Help: "Bookings created.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutor_booking_rejected_total",
			Help: "Booking creations rejected, by reason.",
		}, []string{"reason"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutor_booking_transitions_total",
			Help: "Booking status transitions, by target status.",
		}, []string{"status"}),
		inbox: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tutor_booking_inbox_recompute_seconds",
			Help:    "Time spent rebuilding the tutor inbox from a full query.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(c.created, c.rejected, c.transitions, c.inbox)
	return c
}

func (c *Collector) RecordBookingCreated() {
	c.created.Inc()
}

func (c *Collector) RecordBookingRejected(reason string) {
	c.rejected.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordTransition(status string) {
	c.transitions.WithLabelValues(status).Inc()
}

func (c *Collector) RecordInboxRecompute(duration time.Duration) {
	c.inbox.Observe(duration.Seconds())
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordBookingCreated()              {}
func (Nop) RecordBookingRejected(string)       {}
func (Nop) RecordTransition(string)            {}
func (Nop) RecordInboxRecompute(time.Duration) {}
