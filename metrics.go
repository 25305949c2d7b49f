package taskmutex

import "github.com/prometheus/client_golang/prometheus"

var (
	// promRecursiveGrants counts locks granted via the donor-recursion
	// branch of AcquireOr, rather than through the internal lock itself.
	promRecursiveGrants = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "taskmutex_recursive_grants_total",
		Help: "Total number of locks granted to a donor goroutine re-entering its own writer's ExecutionState.",
	})

	// promUpgradeRaces counts UpgradeToWriter calls that had to fall back
	// to a full reacquire because another reader upgraded first.
	promUpgradeRaces = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "taskmutex_upgrade_races_lost_total",
		Help: "Total number of UpgradeToWriter calls that lost the race to upgrade in place.",
	})

	// promExecuteDuration times the writer's Execute calls, from spawn to
	// the task group draining empty.
	promExecuteDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "taskmutex_execute_duration_seconds",
		Help: "Time spent by a writer inside Execute, including time spent waiting for donors to finish draining.",
	})
)

// RegisterMetrics registers this package's collectors against reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{promRecursiveGrants, promUpgradeRaces, promExecuteDuration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
