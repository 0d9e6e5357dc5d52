package xlog

import (
	"go.uber.org/zap/zapcore"
)

// AntsXLogger implements the ants.Logger.
type AntsXLogger struct {
	logger XLogger
}

func (l *AntsXLogger) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Logf(zapcore.ErrorLevel, format, args...)
}

func NewAntsXLogger(logger XLogger) *AntsXLogger {
	if logger == nil {
		return nil
	}
	return &AntsXLogger{
		logger: logger.Named("Ants"),
	}
}
