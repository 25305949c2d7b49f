// Package tracing provides a process-wide opentracing tracer for taskmutex's
// instrumented operations.
//
// Unlike a multi-node system, taskmutex has no peer addresses to key a tracer
// catalog by, so this collapses dela's per-address tracer cache down to a
// single tracer per service name.
package tracing

import (
	"io"
	"sync"

	opentracing "github.com/opentracing/opentracing-go"
	_ "github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	"golang.org/x/xerrors"
)

type closableTracer struct {
	tracer opentracing.Tracer
	closer io.Closer
}

var catalog = struct {
	sync.Mutex
	byService map[string]closableTracer
}{
	byService: make(map[string]closableTracer),
}

// Tracer returns an opentracing.Tracer for the given service name, creating
// and caching it on first use.
func Tracer(service string) (opentracing.Tracer, error) {
	catalog.Lock()
	defer catalog.Unlock()

	tc, ok := catalog.byService[service]
	if ok {
		return tc.tracer, nil
	}

	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		return nil, xerrors.Errorf("error parsing jaeger configuration from environment: %v", err)
	}

	cfg.ServiceName = service

	tracer, closer, err := cfg.NewTracer()
	if err != nil {
		return nil, xerrors.Errorf("error creating new tracer: %v", err)
	}

	catalog.byService[service] = closableTracer{
		tracer: tracer,
		closer: closer,
	}

	return tracer, nil
}

// CloseAll closes every tracer created so far.
func CloseAll() error {
	catalog.Lock()
	defer catalog.Unlock()

	for _, tc := range catalog.byService {
		if err := tc.closer.Close(); err != nil {
			return err
		}
	}

	return nil
}
