package service

import "github.com/prometheus/client_golang/prometheus"

var (
	cartOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_operations_total",
			Help: "Total number of persisted cart mutations by operation",
		},
		[]string{"op"},
	)

	cartConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cart_version_conflicts_total",
			Help: "Total number of cart saves that lost a version race and were retried",
		},
	)

	checkoutSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_submissions_total",
			Help: "Total number of checkout submissions by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(cartOperationsTotal)
	prometheus.MustRegister(cartConflictsTotal)
	prometheus.MustRegister(checkoutSubmissionsTotal)
}
