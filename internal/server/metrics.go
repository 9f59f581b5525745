package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lazypower/sable/internal/affect"
)

// Metrics holds the service's Prometheus collectors. It implements
// engine.Observer so the manager reports into the same registry.
type Metrics struct {
	registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Emotions        *prometheus.CounterVec
	Encoded         prometheus.Counter
	Archived        prometheus.Counter
	Fallbacks       *prometheus.CounterVec
	DecayDuration   prometheus.Histogram
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sable_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "sable_http_request_duration_seconds",
				Help: "HTTP request duration in seconds",
			},
			[]string{"method", "route"},
		),
		Emotions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sable_emotions_added_total",
				Help: "Emotion instances created, by kind",
			},
			[]string{"kind"},
		),
		Encoded: f.NewCounter(prometheus.CounterOpts{
			Name: "sable_memories_encoded_total",
			Help: "Events encoded as memories",
		}),
		Archived: f.NewCounter(prometheus.CounterOpts{
			Name: "sable_memories_archived_total",
			Help: "Memories archived by decay passes",
		}),
		Fallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sable_classifier_fallbacks_total",
				Help: "Classifier failures replaced with a neutral analysis",
			},
			[]string{"reason"},
		),
		DecayDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "sable_decay_pass_duration_seconds",
			Help:    "Memory decay pass duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
}

func (m *Metrics) EmotionAdded(k affect.Kind)       { m.Emotions.WithLabelValues(string(k)).Inc() }
func (m *Metrics) MemoryEncoded()                   { m.Encoded.Inc() }
func (m *Metrics) MemoriesArchived(n int)           { m.Archived.Add(float64(n)) }
func (m *Metrics) ClassifierFallback(reason string) { m.Fallbacks.WithLabelValues(reason).Inc() }
func (m *Metrics) DecayPass(d time.Duration)        { m.DecayDuration.Observe(d.Seconds()) }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// instrument records request counts and latency by route pattern, so
// /api/memories/{id} is one series rather than one per id.
func (m *Metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.Requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
