package observability

import (
	"sync"

	"go.uber.org/zap"

	"github.com/benz9527/xcoll/lib/xlog"
)

// OpsRecorder is notified by a sorted collection after each operation.
// It must be safe for concurrent use.
type OpsRecorder interface {
	RecordAdd()
	RecordRemove()
	// RecordNotFound emits the diagnostic notice of a removal of an absent value.
	RecordNotFound(value any)
}

// The diagnostics go to stderr by default.
var defaultDiagnosticLogger = sync.OnceValue(func() xlog.XLogger {
	return xlog.NewXLogger(
		xlog.WithXLoggerConsoleCore(),
		xlog.WithXLoggerWriter(xlog.StdErr),
		xlog.WithXLoggerEncoder(xlog.PlainText),
		xlog.WithXLoggerLevel(xlog.LogLevelWarn),
	)
})

var _ OpsRecorder = (*opsRecorder)(nil)

type opsRecorder struct {
	logger xlog.XLogger
	stats  *CollectionStats
}

func (r *opsRecorder) RecordAdd() {
	if r.stats != nil {
		r.stats.recordAdd()
	}
}

func (r *opsRecorder) RecordRemove() {
	if r.stats != nil {
		r.stats.recordRemove()
	}
}

func (r *opsRecorder) RecordNotFound(value any) {
	if r.stats != nil {
		r.stats.recordNotFound()
	}
	r.logger.Warn("value not found", zap.Any("value", value))
}

type recorderCfg struct {
	logger xlog.XLogger
	stats  *CollectionStats
}

type RecorderOption func(cfg *recorderCfg)

func WithRecorderXLogger(logger xlog.XLogger) RecorderOption {
	return func(cfg *recorderCfg) {
		cfg.logger = logger
	}
}

func WithRecorderStats(stats *CollectionStats) RecorderOption {
	return func(cfg *recorderCfg) {
		cfg.stats = stats
	}
}

// NewOpsRecorder names the logger after the component.
func NewOpsRecorder(component string, opts ...RecorderOption) OpsRecorder {
	cfg := &recorderCfg{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = defaultDiagnosticLogger()
	}
	return &opsRecorder{
		logger: cfg.logger.Named(component),
		stats:  cfg.stats,
	}
}
