// Command taskmutexbench drives a synthetic writer/reader workload against
// a single taskmutex.TaskMutex, to show donation actually keeping donor
// goroutines busy instead of blocked, and to give a registry to point a
// Prometheus scrape at while it runs.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/xid"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/semaphore"
	"golang.org/x/xerrors"

	"go.dedis.ch/taskmutex"
	"go.dedis.ch/taskmutex/internal/debugsync"
	"go.dedis.ch/taskmutex/taskrt"
)

func main() {
	app := &cli.App{
		Name:  "taskmutexbench",
		Usage: "drive a writer/reader workload against a TaskMutex and report donation behaviour",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a YAML config file"},
			&cli.IntFlag{Name: "writers", Usage: "number of concurrent writer goroutines"},
			&cli.IntFlag{Name: "readers-per-gen", Usage: "reader goroutines launched per generation"},
			&cli.IntFlag{Name: "tasks-per-write", Usage: "subtasks each writer spawns into its Execute closure"},
			&cli.DurationFlag{Name: "duration", Usage: "how long to run the workload"},
			&cli.Int64Flag{Name: "max-in-flight", Usage: "reader goroutines allowed in flight at once"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "if set, serve Prometheus metrics here for the run's duration"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		taskmutex.Logger.Fatal().Err(err).Msg("run failed")
	}
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return xerrors.Errorf("loading config: %v", err)
	}
	applyFlagOverrides(c, &cfg)

	runID := xid.New().String()
	taskmutex.Logger.Info().
		Str("run_id", runID).
		Int("writers", cfg.Writers).
		Int("readers_per_gen", cfg.ReadersPerGen).
		Int("tasks_per_write", cfg.TasksPerWrite).
		Dur("duration", cfg.Duration).
		Msg("starting workload")

	registry := prometheus.NewRegistry()
	for _, register := range []func(prometheus.Registerer) error{
		taskmutex.RegisterMetrics,
		taskrt.RegisterMetrics,
	} {
		if err := register(registry); err != nil {
			return xerrors.Errorf("registering metrics: %v", err)
		}
	}

	var server *http.Server
	if addr := cfg.MetricsAddr; addr != "" {
		server = &http.Server{Addr: addr, Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{})}
		go func() {
			taskmutex.Logger.Info().Str("addr", addr).Msg("serving metrics")
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				taskmutex.Logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
		}()
	}

	report := runWorkload(cfg)

	taskmutex.Logger.Info().
		Str("run_id", runID).
		Int64("writer_executes", report.writerExecutes).
		Int64("writer_tasks_run", report.writerTasksRun).
		Int64("reader_acquires", report.readerAcquires).
		Int64("reader_donations", report.readerDonations).
		Msg("workload finished")

	fmt.Printf(
		"run %s: %d writer executes, %d tasks run, %d reader acquires, %d donation joins\n",
		runID, report.writerExecutes, report.writerTasksRun, report.readerAcquires, report.readerDonations,
	)

	return nil
}

func applyFlagOverrides(c *cli.Context, cfg *config) {
	if c.IsSet("writers") {
		cfg.Writers = c.Int("writers")
	}
	if c.IsSet("readers-per-gen") {
		cfg.ReadersPerGen = c.Int("readers-per-gen")
	}
	if c.IsSet("tasks-per-write") {
		cfg.TasksPerWrite = c.Int("tasks-per-write")
	}
	if c.IsSet("duration") {
		cfg.Duration = c.Duration("duration")
	}
	if c.IsSet("max-in-flight") {
		cfg.MaxInFlight = c.Int64("max-in-flight")
	}
	if c.IsSet("metrics-addr") {
		cfg.MetricsAddr = c.String("metrics-addr")
	}
}

type workloadReport struct {
	writerExecutes  int64
	writerTasksRun  int64
	readerAcquires  int64
	readerDonations int64
}

// runWorkload hammers a single TaskMutex with writers that re-run an
// "expensive initialisation" (spawning cfg.TasksPerWrite subtasks each time)
// and readers that acquire/release in a tight loop, bounded by a weighted
// semaphore so the reader fan-out doesn't outrun the scheduler. It returns
// once cfg.Duration has elapsed and every in-flight goroutine has drained.
func runWorkload(cfg config) workloadReport {
	var mutex taskmutex.TaskMutex
	var report workloadReport
	var stopped atomic.Bool

	sem := semaphore.NewWeighted(cfg.MaxInFlight)
	var inFlight debugsync.WaitGroup

	for i := 0; i < cfg.Writers; i++ {
		inFlight.Add(1)
		go func() {
			defer inFlight.Done()
			for !stopped.Load() {
				var lock taskmutex.ScopedLock
				lock.Acquire(&mutex, true, true)
				_ = lock.Execute(func(s taskmutex.Spawner) error {
					for j := 0; j < cfg.TasksPerWrite; j++ {
						s.Spawn(func() error {
							atomic.AddInt64(&report.writerTasksRun, 1)
							return nil
						})
					}
					return nil
				})
				lock.Release()
				atomic.AddInt64(&report.writerExecutes, 1)
			}
		}()
	}

	go func() {
		time.Sleep(cfg.Duration)
		stopped.Store(true)
	}()

	ctx := context.Background()
	for !stopped.Load() {
		for i := 0; i < cfg.ReadersPerGen; i++ {
			if err := sem.Acquire(ctx, 1); err != nil {
				continue
			}
			inFlight.Add(1)
			go func() {
				defer inFlight.Done()
				defer sem.Release(1)

				var lock taskmutex.ScopedLock
				joined := lock.AcquireOr(&mutex, false, func(workAvailable bool) bool {
					if workAvailable {
						atomic.AddInt64(&report.readerDonations, 1)
					}
					return true
				})
				if !joined {
					lock.Acquire(&mutex, false, true)
				}
				atomic.AddInt64(&report.readerAcquires, 1)
				lock.Release()
			}()
		}
		time.Sleep(time.Millisecond)
	}

	inFlight.Wait()

	return report
}
