package stress

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xcoll/lib/hrtime"
	"github.com/benz9527/xcoll/lib/infra"
	"github.com/benz9527/xcoll/lib/xlog"
	"github.com/benz9527/xcoll/observability"
)

// Result of one stress run.
type Result struct {
	Kind      Kind
	Workers   int
	PerWorker int
	Added     int64
	Removed   int64
	NotFound  int64
	Len       int64
	Elapsed   time.Duration
	// Rendered contents of the container after the run.
	Rendered string
}

func (r *Result) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("kind", r.Kind.String())
	enc.AddInt("workers", r.Workers)
	enc.AddInt("perWorker", r.PerWorker)
	enc.AddInt64("added", r.Added)
	enc.AddInt64("removed", r.Removed)
	enc.AddInt64("notFound", r.NotFound)
	enc.AddInt64("len", r.Len)
	enc.AddDuration("elapsed", r.Elapsed)
	return nil
}

// workload of one worker. Every worker owns a disjoint value range, so the
// final contents are known regardless of the interleaving.
type workload struct {
	worker   int
	values   []int
	removals []int
	absent   []int
}

func (w workload) kept() []int {
	return w.values[len(w.removals):]
}

// Runner drives one sorted container by concurrent workers on a goroutine pool.
type Runner struct {
	opt    *runnerOption
	pool   *ants.Pool
	logger xlog.XLogger
}

func NewRunner(opts ...RunnerOption) (*Runner, error) {
	opt := defaultRunnerOption()
	for _, o := range opts {
		if err := o(opt); err != nil {
			return nil, err
		}
	}
	if opt.logger == nil {
		opt.logger = xlog.NewXLogger(
			xlog.WithXLoggerConsoleCore(),
			xlog.WithXLoggerWriter(xlog.StdErr),
			xlog.WithXLoggerEncoder(xlog.PlainText),
			xlog.WithXLoggerLevel(xlog.LogLevelInfo),
		)
	}

	logger := opt.logger.Named("stress")
	pool, err := ants.NewPool(opt.workers,
		ants.WithPreAlloc(true),
		ants.WithLogger(xlog.NewAntsXLogger(logger)),
	)
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[stress] new workers pool")
	}
	return &Runner{
		opt:    opt,
		pool:   pool,
		logger: logger,
	}, nil
}

func (r *Runner) Kind() Kind {
	return r.opt.kind
}

func (r *Runner) Release() {
	r.pool.Release()
}

func (r *Runner) workloads() []workload {
	removals := r.opt.removals()
	return lo.Map(lo.Range(r.opt.workers), func(worker int, _ int) workload {
		values := lo.Shuffle(lo.RangeFrom(worker*r.opt.perWorker, r.opt.perWorker))
		return workload{
			worker:   worker,
			values:   values,
			removals: values[:removals],
			// Negative values are never added.
			absent: lo.Map(lo.Range(r.opt.absentRemovals), func(i int, _ int) int {
				return -(worker*r.opt.absentRemovals + i + 1)
			}),
		}
	})
}

func (r *Runner) recorder() observability.OpsRecorder {
	component := r.opt.kind.String()
	opts := []observability.RecorderOption{
		observability.WithRecorderXLogger(r.opt.logger),
	}
	if r.opt.enableStats {
		opts = append(opts, observability.WithRecorderStats(
			observability.NewCollectionStats(component, r.opt.meterProviders...),
		))
	}
	return observability.NewOpsRecorder(component, opts...)
}

// Run adds every value of every worker, removes the configured fraction and
// then checks the final contents against the sequential expectation.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	c := newContainer(r.opt.kind, r.recorder())
	loads := r.workloads()
	r.logger.Info("stress run started",
		zap.Stringer("kind", r.opt.kind),
		zap.Int("workers", r.opt.workers),
		zap.Int("perWorker", r.opt.perWorker),
		zap.Float64("removeRatio", r.opt.removeRatio),
	)

	var (
		wg       sync.WaitGroup
		lock     sync.Mutex
		merr     error
		notFound atomic.Int64
	)
	sw := hrtime.StartStopwatch(r.opt.clock)
	for _, load := range loads {
		wg.Add(1)
		err := r.pool.Submit(func() {
			defer wg.Done()
			if err := r.execute(ctx, c, load, &notFound); err != nil {
				lock.Lock()
				merr = multierr.Append(merr, err)
				lock.Unlock()
			}
		})
		if err != nil {
			wg.Done()
			lock.Lock()
			merr = multierr.Append(merr, infra.WrapErrorStackWithMessage(err, "[stress] submit workload"))
			lock.Unlock()
			break
		}
	}
	wg.Wait()
	elapsed := sw.Elapsed()
	if merr != nil {
		return nil, merr
	}

	result := &Result{
		Kind:      r.opt.kind,
		Workers:   r.opt.workers,
		PerWorker: r.opt.perWorker,
		Added:     int64(r.opt.workers * r.opt.perWorker),
		Removed:   int64(r.opt.workers * r.opt.removals()),
		NotFound:  notFound.Load(),
		Len:       c.Len(),
		Elapsed:   elapsed,
		Rendered:  c.String(),
	}
	if err := r.check(c, loads, result); err != nil {
		r.logger.ErrorStack(err, "stress run check failed", zap.Object("result", result))
		return result, err
	}
	r.logger.Info("stress run finished", zap.Object("result", result))
	return result, nil
}

func (r *Runner) execute(ctx context.Context, c container, load workload, notFound *atomic.Int64) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = infra.NewErrorStack(fmt.Sprintf("[stress] worker %d panic: %v", load.worker, p))
		}
	}()

	for _, v := range load.values {
		if err = ctx.Err(); err != nil {
			return err
		}
		c.Add(v)
	}
	for _, v := range load.removals {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = c.Remove(v); err != nil {
			return fmt.Errorf("[stress] worker %d lost value %d: %w", load.worker, v, err)
		}
	}
	for _, v := range load.absent {
		err = c.Remove(v)
		if !errors.Is(err, infra.ErrNotFound) {
			return fmt.Errorf("[stress] worker %d removed the absent value %d", load.worker, v)
		}
		notFound.Add(1)
	}
	return nil
}

func (r *Runner) check(c container, loads []workload, result *Result) error {
	var merr error
	expected := lo.Flatten(lo.Map(loads, func(load workload, _ int) []int {
		return load.kept()
	}))
	slices.Sort(expected)

	if snapshot := c.Snapshot(); !slices.Equal(expected, snapshot) {
		merr = multierr.Append(merr, fmt.Errorf("[stress] %s contents mismatch: expected %d values, got %d",
			r.opt.kind, len(expected), len(snapshot)))
	}
	if want := int64(len(expected)); result.Len != want {
		merr = multierr.Append(merr, fmt.Errorf("[stress] %s length mismatch: expected %d, got %d",
			r.opt.kind, want, result.Len))
	}
	if want := int64(r.opt.workers * r.opt.absentRemovals); result.NotFound != want {
		merr = multierr.Append(merr, fmt.Errorf("[stress] %s not found mismatch: expected %d, got %d",
			r.opt.kind, want, result.NotFound))
	}
	return multierr.Append(merr, c.Validate())
}
