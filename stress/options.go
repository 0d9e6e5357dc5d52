package stress

import (
	"fmt"
	"runtime"

	"go.opentelemetry.io/otel/metric"

	"github.com/benz9527/xcoll/lib/hrtime"
	"github.com/benz9527/xcoll/lib/infra"
	"github.com/benz9527/xcoll/lib/xlog"
)

const (
	defaultPerWorker   = 1000
	defaultRemoveRatio = 0.5
	maxWorkers         = 1 << 10
)

type runnerOption struct {
	kind           Kind
	workers        int
	perWorker      int
	removeRatio    float64
	absentRemovals int
	logger         xlog.XLogger
	clock          hrtime.Clock
	meterProviders []metric.MeterProvider
	enableStats    bool
}

func defaultRunnerOption() *runnerOption {
	return &runnerOption{
		kind:        FineList,
		workers:     runtime.GOMAXPROCS(0),
		perWorker:   defaultPerWorker,
		removeRatio: defaultRemoveRatio,
		clock:       hrtime.DefaultClock,
	}
}

// removals of each worker.
func (opt *runnerOption) removals() int {
	return int(float64(opt.perWorker) * opt.removeRatio)
}

type RunnerOption func(opt *runnerOption) error

func WithRunnerKind(kind Kind) RunnerOption {
	return func(opt *runnerOption) error {
		if kind >= _kindMax {
			return infra.NewErrorStack(fmt.Sprintf("[stress] unknown container kind %d", kind))
		}
		opt.kind = kind
		return nil
	}
}

func WithRunnerWorkers(workers int) RunnerOption {
	return func(opt *runnerOption) error {
		if workers < 1 || workers > maxWorkers {
			return infra.NewErrorStack(fmt.Sprintf("[stress] workers must be in [1, %d], got %d", maxWorkers, workers))
		}
		opt.workers = workers
		return nil
	}
}

// WithRunnerPerWorker sets the size of the disjoint value range owned by
// each worker.
func WithRunnerPerWorker(perWorker int) RunnerOption {
	return func(opt *runnerOption) error {
		if perWorker < 1 {
			return infra.NewErrorStack(fmt.Sprintf("[stress] values per worker must be positive, got %d", perWorker))
		}
		opt.perWorker = perWorker
		return nil
	}
}

// WithRunnerRemoveRatio sets the fraction of its own values that each worker
// removes after adding them.
func WithRunnerRemoveRatio(ratio float64) RunnerOption {
	return func(opt *runnerOption) error {
		if ratio < 0 || ratio > 1 {
			return infra.NewErrorStack(fmt.Sprintf("[stress] remove ratio must be in [0, 1], got %v", ratio))
		}
		opt.removeRatio = ratio
		return nil
	}
}

// WithRunnerAbsentRemovals makes each worker remove values that were never
// added, every one of them must fail with a not found diagnostic.
func WithRunnerAbsentRemovals(n int) RunnerOption {
	return func(opt *runnerOption) error {
		if n < 0 {
			return infra.NewErrorStack(fmt.Sprintf("[stress] absent removals must not be negative, got %d", n))
		}
		opt.absentRemovals = n
		return nil
	}
}

func WithRunnerXLogger(logger xlog.XLogger) RunnerOption {
	return func(opt *runnerOption) error {
		if logger == nil {
			return infra.NewErrorStack("[stress] nil xlogger")
		}
		opt.logger = logger
		return nil
	}
}

func WithRunnerClock(clock hrtime.Clock) RunnerOption {
	return func(opt *runnerOption) error {
		if clock == nil {
			return infra.NewErrorStack("[stress] nil clock")
		}
		opt.clock = clock
		return nil
	}
}

// WithRunnerStats feeds the collection stats of the container under stress
// into the meter provider, the global one if absent.
func WithRunnerStats(mp ...metric.MeterProvider) RunnerOption {
	return func(opt *runnerOption) error {
		opt.enableStats = true
		opt.meterProviders = mp
		return nil
	}
}
