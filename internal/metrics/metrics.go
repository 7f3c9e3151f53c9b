// Package metrics holds Prometheus instruments that are used across the
// engine.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	FormsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formscribe_forms_processed_total",
			Help: "Form passes completed, by form and outcome (ok, error).",
		}, []string{"form", "outcome"})

	FormDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "formscribe_form_duration_seconds",
			Help:    "Wall time of one validation and submission pass.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"form"})

	FieldOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formscribe_field_outcomes_total",
			Help: "Terminal field states, by form and status.",
		}, []string{"form", "status"})

	FormErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formscribe_form_errors_total",
			Help: "Accumulated form errors, by form and kind (validation, submit).",
		}, []string{"form", "kind"})

	DefinitionLoadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "formscribe_definition_load_total",
			Help: "Cumulative number of YAML form definitions loaded.",
		})

	DefinitionLoadErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "formscribe_definition_load_errors_total",
			Help: "Cumulative number of YAML form definition load errors.",
		})

	ActionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formscribe_action_errors_total",
			Help: "Post-submit action failures, by action type.",
		}, []string{"action"})
)

func init() {
	prometheus.MustRegister(
		FormsProcessedTotal,
		FormDuration,
		FieldOutcomesTotal,
		FormErrorsTotal,
		DefinitionLoadTotal,
		DefinitionLoadErrorsTotal,
		ActionErrorsTotal,
	)
}
