package middleware

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jpl-au/express"
	"github.com/jpl-au/express/httpx"
)

// Metrics holds the Prometheus collectors recorded by its middleware.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlight        prometheus.Gauge
	ResponseSize    *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors under namespace and registers them with
// reg. A nil reg uses a fresh registry.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total requests",
			},
			[]string{"method", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Request duration",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		InFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "requests_in_flight",
				Help:      "Requests whose response has not ended",
			},
		),
		ResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "response_size_bytes",
				Help:      "Response body size",
				Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
			},
			[]string{"method"},
		),
		gatherer: reg,
	}
	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.InFlight, m.ResponseSize)
	return m
}

// Middleware records every request once its response ends.
func (m *Metrics) Middleware() express.Middleware {
	return func(req *express.Request, res *express.Response, next express.Next) {
		start := time.Now()
		m.InFlight.Inc()
		res.OnFinish(func(res *express.Response) {
			m.InFlight.Dec()
			status := strconv.Itoa(res.Status()/100) + "xx"
			m.RequestsTotal.WithLabelValues(req.Method(), status).Inc()
			m.RequestDuration.WithLabelValues(req.Method()).Observe(time.Since(start).Seconds())
			m.ResponseSize.WithLabelValues(req.Method()).Observe(float64(res.Size()))
		})
		next()
	}
}

// Handler returns middleware serving the registry in the Prometheus text
// format. Register it with Router.Get on the metrics path.
func (m *Metrics) Handler() express.Middleware {
	return httpx.Wrap(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}
