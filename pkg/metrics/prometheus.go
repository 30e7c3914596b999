package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions    *prometheus.CounterVec
	trainings      *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	cacheOps       *prometheus.CounterVec
	sourceFailures *prometheus.CounterVec
	lastPrice      *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		predictions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spotcast_predictions_total",
				Help: "Total number of predictions served",
			},
			[]string{"commodity", "region"},
		),
		trainings: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spotcast_trainings_total",
				Help: "Total number of completed training cycles",
			},
			[]string{"commodity", "region", "model"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spotcast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		cacheOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spotcast_cache_requests_total",
				Help: "Cache lookups partitioned by cache name and outcome",
			},
			[]string{"cache", "outcome"},
		),
		sourceFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spotcast_source_failures_total",
				Help: "Upstream source fetch failures",
			},
			[]string{"source"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "spotcast_last_price",
				Help: "Last served regional price",
			},
			[]string{"commodity", "region"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spotcast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordPrediction records one served prediction.
func (r *Recorder) RecordPrediction(commodity, region string) {
	r.predictions.WithLabelValues(commodity, region).Inc()
}

// RecordTraining records one completed training cycle.
func (r *Recorder) RecordTraining(commodity, region, model string) {
	r.trainings.WithLabelValues(commodity, region, model).Inc()
}

// RecordCache records a cache lookup outcome.
func (r *Recorder) RecordCache(cache string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.cacheOps.WithLabelValues(cache, outcome).Inc()
}

// RecordSourceFailure records an upstream source fetch failure.
func (r *Recorder) RecordSourceFailure(source string) {
	r.sourceFailures.WithLabelValues(source).Inc()
}

// RecordLastPrice records the last served price for a pair.
func (r *Recorder) RecordLastPrice(commodity, region string, price float64) {
	r.lastPrice.WithLabelValues(commodity, region).Set(price)
}
