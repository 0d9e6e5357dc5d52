package xlog

import (
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var _ XLogCore = (*ObservedCore)(nil)

// ObservedCore keeps the log entries in memory instead of writing them out.
// It serves for tests to assert on the emitted diagnostics.
type ObservedCore struct {
	logs *observer.ObservedLogs
}

func NewObservedCore() *ObservedCore {
	return &ObservedCore{}
}

func (oc *ObservedCore) Build(
	lvlEnabler zapcore.LevelEnabler,
	_ LogEncoderType,
	_ LogOutWriterType,
	_ zapcore.LevelEncoder,
	_ zapcore.TimeEncoder,
) (core zapcore.Core, stop func() error, err error) {
	core, oc.logs = observer.New(lvlEnabler)
	return core, nil, nil
}

// Logs returns nil before the core has been built by NewXLogger.
func (oc *ObservedCore) Logs() *observer.ObservedLogs {
	return oc.logs
}
