package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики обработки flowcell.
var (
	// SamplesTotal — итоговые статусы образцов.
	SamplesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scauto_samples_total",
		Help: "Processed samples by final status",
	}, []string{"status"})

	// AnnotationsTotal — результаты аннотации (success/failure).
	AnnotationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scauto_annotations_total",
		Help: "Annotation tasks by result",
	}, []string{"result"})

	// FlowcellDuration — длительность обработки flowcell.
	FlowcellDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scauto_flowcell_duration_seconds",
		Help:    "Wall time of one flowcell batch",
		Buckets: prometheus.ExponentialBuckets(60, 2, 12),
	})

	// FlowcellsTotal — итоговые статусы flowcell.
	FlowcellsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scauto_flowcells_total",
		Help: "Processed flowcells by final status",
	}, []string{"status"})

	// HTTPRequestsTotal — запросы к HTTP API.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scauto_api_http_requests_total",
		Help: "Total HTTP requests handled by scauto-api",
	}, []string{"method", "status"})
)

// AnnotationLabel возвращает метку результата аннотации.
func AnnotationLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
