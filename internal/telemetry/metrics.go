// Package telemetry provides Prometheus instrumentation for the scoring service.
package telemetry

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fraudscore"

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// PredictionsTotal counts scored transactions by hard prediction.
	PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Total scored transactions by prediction (0 legitimate, 1 fraud).",
		},
		[]string{"prediction"},
	)

	// RiskScores observes the distribution of served risk scores.
	RiskScores = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "risk_score",
		Help:      "Served fraud probabilities.",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	})

	// AlignmentWarningsTotal counts serving requests whose fields were defaulted or dropped.
	AlignmentWarningsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alignment_warnings_total",
		Help:      "Serving requests with missing, unknown or invalid fields.",
	})

	// ExplanationFallbacksTotal counts placeholder explanations by reason.
	ExplanationFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "explanation_fallbacks_total",
			Help:      "Explanations served as placeholder text, by reason.",
		},
		[]string{"reason"},
	)

	// TrainingRunsTotal counts training runs by status.
	TrainingRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "training_runs_total",
			Help:      "Training runs by status.",
		},
		[]string{"status"},
	)

	// TrainingDuration observes wall time of training runs.
	TrainingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "training_duration_seconds",
		Help:      "Training run duration in seconds.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	})

	// ModelGeneration is the generation of the active model.
	ModelGeneration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "model_generation",
		Help:      "Generation counter of the active model.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		PredictionsTotal,
		RiskScores,
		AlignmentWarningsTotal,
		ExplanationFallbacksTotal,
		TrainingRunsTotal,
		TrainingDuration,
		ModelGeneration,
	)
}

// ObservePrediction records one served score
func ObservePrediction(score float64, prediction int) {
	RiskScores.Observe(score)
	PredictionsTotal.WithLabelValues(strconv.Itoa(prediction)).Inc()
}

// ObserveFallback records one placeholder explanation
func ObserveFallback(reason string) {
	ExplanationFallbacksTotal.WithLabelValues(reason).Inc()
}

// ObserveTraining records one finished training run
func ObserveTraining(seconds float64, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	TrainingRunsTotal.WithLabelValues(status).Inc()
	TrainingDuration.Observe(seconds)
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus exposition handler.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
