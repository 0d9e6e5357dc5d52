package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/pflag"

	"github.com/benz9527/xcoll/stress"
)

const (
	metricsNone       = "none"
	metricsConsole    = "console"
	metricsPrometheus = "prometheus"
)

var metricsModes = []string{metricsNone, metricsConsole, metricsPrometheus}

type cliConfig struct {
	Kind            stress.Kind
	Workers         int
	PerWorker       int
	RemoveRatio     float64
	AbsentRemovals  int
	Metrics         string
	MetricsAddr     string
	MetricsInterval time.Duration
	Linger          time.Duration
	Print           bool
	LogLevel        string
	LogFile         string
	LogMaxSize      string
	LogMaxBackups   int
}

func parseFlags(args []string) (*cliConfig, error) {
	var (
		cfg  = &cliConfig{}
		kind string
		fs   = pflag.NewFlagSet("xcoll", pflag.ContinueOnError)
	)
	fs.StringVarP(&kind, "kind", "k", stress.FineList.String(),
		"sorted container under stress, one of "+strings.Join(stress.KindNames(), "|"))
	fs.IntVarP(&cfg.Workers, "workers", "w", runtime.GOMAXPROCS(0), "concurrent workers")
	fs.IntVarP(&cfg.PerWorker, "per-worker", "n", 1000, "values added by each worker")
	fs.Float64Var(&cfg.RemoveRatio, "remove-ratio", 0.5, "fraction of its values each worker removes")
	fs.IntVar(&cfg.AbsentRemovals, "absent-removals", 0, "removals of never added values per worker")
	fs.StringVar(&cfg.Metrics, "metrics", metricsNone, "metrics exporter, one of "+strings.Join(metricsModes, "|"))
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "127.0.0.1:9464", "listen address of the prometheus metrics")
	fs.DurationVar(&cfg.MetricsInterval, "metrics-interval", time.Second, "export interval of the console metrics")
	fs.DurationVar(&cfg.Linger, "linger", 0, "keep serving the metrics after the run")
	fs.BoolVarP(&cfg.Print, "print", "p", false, "print the final contents to stdout")
	fs.StringVar(&cfg.LogLevel, "log-level", lo.Ternary(os.Getenv("XLOG_LVL") != "", os.Getenv("XLOG_LVL"), "INFO"),
		"log level, defaults to $XLOG_LVL")
	fs.StringVar(&cfg.LogFile, "log-file", "", "write the logs into a rolling file instead of stderr")
	fs.StringVar(&cfg.LogMaxSize, "log-max-size", "64MB", "size of the log file before rolling over")
	fs.IntVar(&cfg.LogMaxBackups, "log-max-backups", 3, "rolled over log files to keep")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var err error
	if cfg.Kind, err = stress.ParseKind(kind); err != nil {
		return nil, err
	}
	if !lo.Contains(metricsModes, cfg.Metrics) {
		return nil, fmt.Errorf("unknown metrics exporter %q, expected one of %s",
			cfg.Metrics, strings.Join(metricsModes, "|"))
	}
	if cfg.Linger < 0 {
		return nil, fmt.Errorf("negative linger %s", cfg.Linger)
	}
	return cfg, nil
}
