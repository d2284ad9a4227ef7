// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	RuleMatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decisioning_rule_matches_total",
			Help: "Total rule matches by rule id, including the no-match outcome",
		},
		[]string{"rule_id"},
	)

	TemplateRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decisioning_template_renders_total",
			Help: "Total template renders by template id",
		},
		[]string{"template_id"},
	)

	FieldStateUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decisioning_field_state_updates_total",
			Help: "Total field state upserts by source",
		},
		[]string{"source"},
	)

	OffersGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "underwriting_offers_generated_total",
			Help: "Total offers generated across all tiers",
		},
	)

	GuardrailRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "underwriting_guardrail_rejections_total",
			Help: "Total offer requests rejected by guardrails",
		},
		[]string{"reason"},
	)

	FollowUpsScheduled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduling_follow_ups_scheduled_total",
			Help: "Total follow-ups scheduled",
		},
	)
)
