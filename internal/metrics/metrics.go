// Package metrics exposes Prometheus counters for check-in outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var checkinsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gympoint_checkins_total",
	Help: "Check-in attempts by outcome.",
}, []string{"result"})

// Check-in outcome labels.
const (
	ResultAllowed     = "allowed"
	ResultNotEnrolled = "not_enrolled"
	ResultDailyLimit  = "daily_limit"
	ResultWeeklyLimit = "weekly_limit"
	ResultError       = "error"
)

// ObserveCheckin records one check-in attempt outcome.
func ObserveCheckin(result string) {
	checkinsTotal.WithLabelValues(result).Inc()
}
