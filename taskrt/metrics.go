package taskrt

import "github.com/prometheus/client_golang/prometheus"

var (
	// TasksDrained counts every task run to completion by any goroutine
	// draining a TaskGroup, owner or donor alike.
	TasksDrained = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "taskmutex_taskrt_tasks_drained_total",
		Help: "Total number of tasks run to completion while draining a task group.",
	})

	// DonationsJoined counts every time a goroutine joined an arena to
	// help drain a task group instead of blocking idly for the lock.
	DonationsJoined = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "taskmutex_taskrt_donations_joined_total",
		Help: "Total number of times a contending goroutine donated its wait time to a writer's work.",
	})
)

// RegisterMetrics registers taskrt's collectors against reg. Call it once
// per registry; registering the same collector twice returns an error.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{TasksDrained, DonationsJoined} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
