// Package metrics exposes Prometheus counters for the submission pipeline
// and the reporting endpoints.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "survey",
		Name:      "submissions_accepted_total",
		Help:      "Submissions accepted and persisted.",
	})

	SubmissionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "survey",
		Name:      "submissions_rejected_total",
		Help:      "Submissions rejected, by reason.",
	}, []string{"reason"})

	SanitizationIssues = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "survey",
		Name:      "sanitization_issues_total",
		Help:      "Fields nulled by the content filter across accepted submissions.",
	})

	ReportsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "survey",
		Name:      "reports_generated_total",
		Help:      "Cross-tabulation reports generated.",
	})

	StorageErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "survey",
		Name:      "storage_errors_total",
		Help:      "Persistence or query failures surfaced to callers.",
	})
)
