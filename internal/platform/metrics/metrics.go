// Package metrics defines the Prometheus collectors for the account portal.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

// Metrics contains the application counters.
type Metrics struct {
	registry *prometheus.Registry

	AuthEvents      *prometheus.CounterVec
	ResetEvents     *prometheus.CounterVec
	MailSends       *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a registry with the Go and process collectors plus the application metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		AuthEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_auth_events_total",
				Help: "Login, signup and logout attempts by outcome",
			},
			[]string{"event", "outcome"},
		),
		ResetEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_password_reset_events_total",
				Help: "Password reset steps by outcome",
			},
			[]string{"step", "outcome"},
		),
		MailSends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_mail_sends_total",
				Help: "Notification mails by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portal_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}

	registry.MustRegister(m.AuthEvents, m.ResetEvents, m.MailSends, m.RequestDuration)
	return m
}

// RecordAuth counts an authentication event such as "login" or "signup".
func (m *Metrics) RecordAuth(event, outcome string) {
	if m == nil {
		return
	}
	m.AuthEvents.WithLabelValues(event, outcome).Inc()
}

// RecordReset counts a password reset step such as "request" or "complete".
func (m *Metrics) RecordReset(step, outcome string) {
	if m == nil {
		return
	}
	m.ResetEvents.WithLabelValues(step, outcome).Inc()
}

// RecordMail counts a notification delivery attempt.
func (m *Metrics) RecordMail(kind, outcome string) {
	if m == nil {
		return
	}
	m.MailSends.WithLabelValues(kind, outcome).Inc()
}

// Middleware observes request latency labelled by the matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
