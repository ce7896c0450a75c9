package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector groups the service's Prometheus instruments.
type Collector struct {
	Registry             *prometheus.Registry
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
	RateLimited          prometheus.Counter
	NotificationAttempts *prometheus.CounterVec
	NotificationsPending prometheus.Gauge
	JobDuration          *prometheus.HistogramVec
}

// New registers every instrument on a fresh registry together with the Go
// runtime and process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

func NewWithRegistry(reg *prometheus.Registry) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		Registry: reg,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ems_http_requests_total",
			Help: "Total HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ems_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "ems_http_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
		NotificationAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ems_notification_attempts_total",
			Help: "Email delivery attempts by outcome.",
		}, []string{"outcome"}), // outcome: sent, retry, failed, disabled
		NotificationsPending: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ems_notifications_pending",
			Help: "Notifications claimed in the last dispatch batch.",
		}),
		JobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ems_job_duration_seconds",
			Help:    "Background job run time.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job_type", "status"}),
	}
}

func (c *Collector) Record(method, route string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	if status == 429 {
		c.RateLimited.Inc()
	}
}

func (c *Collector) RecordNotification(outcome string) {
	if c == nil {
		return
	}
	c.NotificationAttempts.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordJob(jobType, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.JobDuration.WithLabelValues(jobType, status).Observe(duration.Seconds())
}

func (c *Collector) SetNotificationsPending(count int) {
	if c == nil {
		return
	}
	c.NotificationsPending.Set(float64(count))
}
