package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "invoice_pipeline",
		Name:      "stage_seconds",
		Help:      "Time spent in each invoice pipeline stage.",
		Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"stage"})

	stageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "invoice_pipeline",
		Name:      "failures_total",
		Help:      "Invoice pipeline runs that stopped at a stage, by error kind.",
	}, []string{"stage", "kind"})

	runsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "invoice_pipeline",
		Name:      "processed_total",
		Help:      "Invoices that reached the processed status.",
	})
)

func errorKind(err error) string {
	switch err.(type) {
	case *TimeoutError:
		return "timeout"
	case *ExtractionFormatError:
		return "extraction_format"
	case *CategorizationValidationError:
		return "categorization_validation"
	case *TransferError:
		return "transfer"
	default:
		return "other"
	}
}
