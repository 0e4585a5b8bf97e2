package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "floorscreen"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests received",
	}, []string{"method", "route", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_in_flight_requests",
		Help:      "Current number of in-flight HTTP requests",
	})

	interviewTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "interview_turns_total",
		Help:      "Candidate answers processed, by outcome",
	}, []string{"outcome"})

	interviewCompletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "interview_completions_total",
		Help:      "Scored interviews, by result",
	}, []string{"result"})

	collaboratorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "collaborator_failures_total",
		Help:      "Failed calls to external collaborators",
	}, []string{"collaborator"})

	staleSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stale_sessions",
		Help:      "In-progress sessions not updated within the stale window",
	})
)

// Turn outcomes.
const (
	TurnAdvanced  = "advanced"
	TurnClarified = "clarified"
	TurnCompleted = "completed"
	TurnRejected  = "rejected"
	TurnFailed    = "failed"
)

// Collaborator names.
const (
	Interviewer = "interviewer"
	Extractor   = "extractor"
	STT         = "stt"
	TTS         = "tts"
)

func ObserveTurn(outcome string) { interviewTurns.WithLabelValues(outcome).Inc() }

func ObserveCompletion(passed bool) {
	result := "failed"
	if passed {
		result = "passed"
	}
	interviewCompletions.WithLabelValues(result).Inc()
}

func CollaboratorFailure(name string) { collaboratorFailures.WithLabelValues(name).Inc() }

func SetStaleSessions(n int64) { staleSessions.Set(float64(n)) }

// Middleware records request metrics labelled by the matched route, so path
// parameters do not explode label cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		labels := prometheus.Labels{
			"method": c.Request.Method,
			"route":  route,
			"status": strconv.Itoa(c.Writer.Status()),
		}
		httpRequests.With(labels).Inc()
		httpLatency.With(labels).Observe(time.Since(start).Seconds())
	}
}

func Handler() gin.HandlerFunc { return gin.WrapH(promhttp.Handler()) }
