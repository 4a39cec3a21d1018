package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus metrics of the service. A nil *Collector is valid and records
// nothing.
type Collector struct {
	registry *prometheus.Registry

	Cycles       prometheus.Counter
	Polls        *prometheus.CounterVec
	PollDuration *prometheus.HistogramVec
	Accepted     *prometheus.CounterVec
	StoreSize    *prometheus.GaugeVec
	Broadcasts   *prometheus.CounterVec
	Subscribers  prometheus.Gauge
}

// NewCollector creates metrics on a private registry.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Total number of poll cycles started",
		}),
		Polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Connector polls by source and outcome",
		}, []string{"source", "status"}),
		PollDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Connector poll duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		Accepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_accepted_total",
			Help:      "Articles appended to a canonical store",
		}, []string{"source"}),
		StoreSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_size",
			Help:      "Current number of articles per store",
		}, []string{"source"}),
		Broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "Events pushed to subscribers",
		}, []string{"event"}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Connected push channel subscribers",
		}),
	}

	registry.MustRegister(
		c.Cycles,
		c.Polls,
		c.PollDuration,
		c.Accepted,
		c.StoreSize,
		c.Broadcasts,
		c.Subscribers,
		collectors.NewGoCollector(),
	)
	return c
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) CycleStarted() {
	if c == nil {
		return
	}
	c.Cycles.Inc()
}

// ObservePoll records one poll; status is "ok", "failed" or "skipped".
func (c *Collector) ObservePoll(source, status string, took time.Duration) {
	if c == nil {
		return
	}
	c.Polls.WithLabelValues(source, status).Inc()
	if status != "skipped" {
		c.PollDuration.WithLabelValues(source).Observe(took.Seconds())
	}
}

func (c *Collector) ObserveMerge(source string, added, size int) {
	if c == nil {
		return
	}
	c.Accepted.WithLabelValues(source).Add(float64(added))
	c.StoreSize.WithLabelValues(source).Set(float64(size))
}

func (c *Collector) ObserveBroadcast(event string) {
	if c == nil {
		return
	}
	c.Broadcasts.WithLabelValues(event).Inc()
}

func (c *Collector) SetSubscribers(n int) {
	if c == nil {
		return
	}
	c.Subscribers.Set(float64(n))
}
