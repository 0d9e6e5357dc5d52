package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/benz9527/xcoll/lib/infra"
	"github.com/benz9527/xcoll/lib/xlog"
	"github.com/benz9527/xcoll/observability"
	"github.com/benz9527/xcoll/stress"
)

type xcollBanner struct{}

func (xcollBanner) JSON() string {
	return `{"app":"xcoll","desc":"concurrent sorted containers stress"}`
}

func (xcollBanner) PlainText() string {
	return "xcoll: concurrent sorted containers stress"
}

func appOptions(cfg *cliConfig) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		fx.Provide(
			newXLogger,
			newRunner,
		),
		fx.WithLogger(func(logger xlog.XLogger) fxevent.Logger {
			return xlog.NewFxXLogger(logger)
		}),
		fx.Invoke(
			registerMetrics,
			registerStressRun,
		),
	)
}

func newXLogger(lc fx.Lifecycle, cfg *cliConfig) (logger xlog.XLogger, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("new xlogger: %v", r)
		}
	}()

	opts := []xlog.XLoggerOption{
		xlog.WithXLoggerLevel(xlog.LogLevel(strings.ToUpper(cfg.LogLevel))),
		// The stdout is kept for the printed contents.
		xlog.WithXLoggerWriter(xlog.StdErr),
	}
	if cfg.LogFile != "" {
		opts = append(opts,
			xlog.WithXLoggerEncoder(xlog.JSON),
			xlog.WithXLoggerFileCore(&xlog.FileCoreConfig{
				FilePath:       filepath.Dir(cfg.LogFile),
				Filename:       filepath.Base(cfg.LogFile),
				FileMaxSize:    cfg.LogMaxSize,
				FileMaxBackups: cfg.LogMaxBackups,
			}),
		)
	} else {
		opts = append(opts,
			xlog.WithXLoggerEncoder(xlog.PlainText),
			xlog.WithXLoggerConsoleCore(),
		)
	}
	logger = xlog.NewXLogger(opts...)
	logger.Banner(xcollBanner{})
	lc.Append(fx.StopHook(logger.Close))
	return logger, nil
}

func newRunner(lc fx.Lifecycle, cfg *cliConfig, logger xlog.XLogger) (*stress.Runner, error) {
	opts := []stress.RunnerOption{
		stress.WithRunnerKind(cfg.Kind),
		stress.WithRunnerWorkers(cfg.Workers),
		stress.WithRunnerPerWorker(cfg.PerWorker),
		stress.WithRunnerRemoveRatio(cfg.RemoveRatio),
		stress.WithRunnerAbsentRemovals(cfg.AbsentRemovals),
		stress.WithRunnerXLogger(logger),
	}
	if cfg.Metrics != metricsNone {
		opts = append(opts, stress.WithRunnerStats())
	}
	runner, err := stress.NewRunner(opts...)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(runner.Release))
	return runner, nil
}

func registerMetrics(lc fx.Lifecycle, cfg *cliConfig, logger xlog.XLogger) error {
	var (
		shutdown func(ctx context.Context) error
		err      error
	)
	switch cfg.Metrics {
	case metricsConsole:
		shutdown, err = observability.NewConsoleMetricsExporter(cfg.MetricsInterval, time.Second)
	case metricsPrometheus:
		shutdown, err = observability.NewPrometheusMetricsExporter()
	default:
		return nil
	}
	if err != nil {
		return infra.WrapErrorStackWithMessage(err, "new "+cfg.Metrics+" metrics exporter")
	}
	observability.InitAppStats(context.Background(), "xcoll", nil)

	if cfg.Metrics == metricsPrometheus {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				ln, err := net.Listen("tcp", server.Addr)
				if err != nil {
					return infra.WrapErrorStackWithMessage(err, "listen metrics addr "+server.Addr)
				}
				logger.Info("serving prometheus metrics", zap.String("addr", ln.Addr().String()))
				go func() {
					if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error(err, "prometheus metrics server stopped")
					}
				}()
				return nil
			},
			OnStop: server.Shutdown,
		})
	}
	lc.Append(fx.StopHook(shutdown))
	return nil
}

func registerStressRun(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *cliConfig,
	runner *stress.Runner,
	logger xlog.XLogger,
) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				exitCode := 0
				result, err := runner.Run(ctx)
				if err != nil {
					exitCode = 1
				} else if cfg.Print {
					_, _ = fmt.Fprintln(os.Stdout, result.Rendered)
				}
				if cfg.Linger > 0 && cfg.Metrics != metricsNone {
					logger.Info("lingering for the metrics", zap.Duration("linger", cfg.Linger))
					select {
					case <-ctx.Done():
					case <-time.After(cfg.Linger):
					}
				}
				if err := shutdowner.Shutdown(fx.ExitCode(exitCode)); err != nil {
					logger.Error(err, "shutdown xcoll")
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
