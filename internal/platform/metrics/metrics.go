package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry propio para no mezclar con el default global.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "straypet",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "straypet",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	geocodeLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "straypet",
			Subsystem: "geocoding",
			Name:      "lookups_total",
			Help:      "Geocoding lookups by provider and outcome (hit, miss, error, cache_hit).",
		},
		[]string{"provider", "outcome"},
	)

	petTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "straypet",
			Subsystem: "lifecycle",
			Name:      "pet_transitions_total",
			Help:      "Pet status transitions applied by the lifecycle rules.",
		},
		[]string{"from", "to"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		geocodeLookups,
		petTransitions,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler expone /metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveGeocode registra el resultado de un proveedor.
func ObserveGeocode(provider, outcome string) {
	geocodeLookups.WithLabelValues(provider, outcome).Inc()
}

// ObserveTransition registra un cambio de estado de mascota.
func ObserveTransition(from, to string) {
	petTransitions.WithLabelValues(from, to).Inc()
}

// Instrument mide requests usando el route pattern de chi (no el path crudo,
// para no explotar la cardinalidad con IDs).
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
