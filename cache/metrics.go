package cache

import "github.com/prometheus/client_golang/prometheus"

var (
	promHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "taskmutex_cache_hits_total",
		Help: "Total number of Get calls that found an already-initialised entry.",
	})

	promMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "taskmutex_cache_misses_total",
		Help: "Total number of Get calls that had to upgrade to a writer and consider computing.",
	})

	promComputeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "taskmutex_cache_compute_errors_total",
		Help: "Total number of ComputeFunc calls that returned an error.",
	})

	promComputeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "taskmutex_cache_compute_duration_seconds",
		Help: "Time spent inside ComputeFunc, from Execute to the task group draining empty.",
	})
)

func startComputeTimer() func() {
	timer := prometheus.NewTimer(promComputeDuration)
	return func() { timer.ObserveDuration() }
}

// RegisterMetrics registers this package's collectors against reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{promHits, promMisses, promComputeErrors, promComputeDuration}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
