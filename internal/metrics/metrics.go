// Package metrics exposes Prometheus collectors for evaluations and awards.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/translation-arena/backend/internal/scoring"
)

const namespace = "transeval"

// Metrics implements evaluation.Observer and gamification.Observer.
type Metrics struct {
	scorerLatency   *prometheus.HistogramVec
	scorerOutcomes  *prometheus.CounterVec
	evaluationTime  prometheus.Histogram
	pointsAwarded   prometheus.Counter
	awards          prometheus.Counter
	badgesUnlocked  prometheus.Counter
	scorerReadiness *prometheus.GaugeVec
	httpRequests    *prometheus.CounterVec
}

// New registers every collector with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		scorerLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scorer",
			Name:      "duration_seconds",
			Help:      "Time spent in one scorer call",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		scorerOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scorer",
			Name:      "results_total",
			Help:      "Scorer results by kind and availability",
		}, []string{"kind", "available"}),
		evaluationTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "duration_seconds",
			Help:      "End-to-end evaluation latency",
			Buckets:   prometheus.DefBuckets,
		}),
		pointsAwarded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "points_awarded_total",
			Help:      "Points awarded across all sessions",
		}),
		awards: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "awards_total",
			Help:      "Evaluations that produced an award",
		}),
		badgesUnlocked: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "badges_unlocked_total",
			Help:      "Badges unlocked across all sessions",
		}),
		scorerReadiness: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scorer",
			Name:      "ready",
			Help:      "1 when the scorer's backends are wired, 0 otherwise",
		}, []string{"kind"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route template, method and status",
		}, []string{"route", "method", "code"}),
	}
}

func (m *Metrics) ScorerFinished(kind scoring.Kind, elapsed time.Duration, available bool) {
	m.scorerOutcomes.WithLabelValues(string(kind), strconv.FormatBool(available)).Inc()
	if available {
		m.scorerLatency.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) EvaluationFinished(elapsed time.Duration) {
	m.evaluationTime.Observe(elapsed.Seconds())
}

func (m *Metrics) PointsAwarded(points int, unlocked []string) {
	m.awards.Inc()
	m.pointsAwarded.Add(float64(points))
	m.badgesUnlocked.Add(float64(len(unlocked)))
}

// SetReadiness publishes the startup readiness of every scorer.
func (m *Metrics) SetReadiness(readiness map[scoring.Kind]error) {
	for kind, err := range readiness {
		v := 0.0
		if err == nil {
			v = 1
		}
		m.scorerReadiness.WithLabelValues(string(kind)).Set(v)
	}
}

// Middleware counts requests by their mux route template.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
