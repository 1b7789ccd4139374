package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MonitorRuns counts overdue-check invocations by outcome
	// (ok, skipped, error).
	MonitorRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iamgood_monitor_runs_total",
		Help: "Overdue monitor invocations by outcome.",
	}, []string{"outcome"})

	// MonitorDuration observes how long a full scan+dispatch run takes.
	MonitorDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "iamgood_monitor_run_duration_seconds",
		Help:    "Duration of overdue monitor runs.",
		Buckets: prometheus.DefBuckets,
	})

	// OverdueUsers counts users found overdue and eligible for a new alert.
	OverdueUsers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "iamgood_overdue_users_total",
		Help: "Users found overdue with a new alert episode triggered.",
	})

	// AlertAttempts counts notification attempts by channel and outcome.
	AlertAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iamgood_alert_attempts_total",
		Help: "Notification attempts by channel and recorded status.",
	}, []string{"channel", "status"})

	// CheckIns counts recorded check-ins by health tag.
	CheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iamgood_check_ins_total",
		Help: "Check-ins recorded, by health tag.",
	}, []string{"health_tag"})
)
