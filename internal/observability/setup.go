package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

var (
	// Global logger instance
	Logger *zap.Logger

	violationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floodgate_violations_total",
			Help: "Total number of recorded violations",
		},
		[]string{"type"},
	)

	actuationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floodgate_actuation_failures_total",
			Help: "Total number of failed restriction attempts",
		},
		[]string{"cause"},
	)

	handlingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "floodgate_message_handling_duration_seconds",
			Help:    "Time spent deciding on inbound messages",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)
)

func Init(ctx context.Context, metricsAddr string) error {
	var err error
	Logger, err = zap.NewProduction()
	if err != nil {
		return err
	}

	prometheus.MustRegister(violationsTotal)
	prometheus.MustRegister(actuationFailuresTotal)
	prometheus.MustRegister(handlingDuration)

	tp := trace.NewTracerProvider()
	otel.SetTracerProvider(tp)

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(metricsAddr, nil); err != nil {
			log.WithError(err).Error("metrics server failed")
		}
	}()

	return nil
}

// RecordViolation counts one recorded violation by type.
func RecordViolation(violationType string) {
	violationsTotal.WithLabelValues(violationType).Inc()
}

// RecordActuationFailure counts one failed restriction attempt by cause.
func RecordActuationFailure(cause string) {
	actuationFailuresTotal.WithLabelValues(cause).Inc()
}

// StartHandling returns a function recording the handling duration under
// the final status label.
func StartHandling() func(status string) {
	timer := prometheus.NewTimer(nil)
	return func(status string) {
		handlingDuration.WithLabelValues(status).Observe(timer.ObserveDuration().Seconds())
	}
}
