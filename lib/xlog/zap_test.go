package xlog

import (
	"errors"
	"testing"
	"time"

	antsv2 "github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/benz9527/xcoll/lib/infra"
)

type testBanner struct{}

func (testBanner) JSON() string      { return `{"name":"xcoll"}` }
func (testBanner) PlainText() string { return "xcoll" }

func newObservedXLogger(t *testing.T, lvl LogLevel) (XLogger, *ObservedCore) {
	core := NewObservedCore()
	logger := NewXLogger(
		WithXLoggerLevel(lvl),
		WithXLoggerCore(core),
	)
	require.NotNil(t, core.Logs())
	return logger, core
}

func TestXLogger_Levels(t *testing.T) {
	logger, core := newObservedXLogger(t, LogLevelInfo)
	logger.Debug("hidden")
	logger.Info("shown", zap.Int("n", 1))
	logger.Warn("warn")
	logger.Error(errors.New("boom"), "error")
	require.Equal(t, 3, core.Logs().Len())
	require.Zero(t, core.Logs().FilterMessage("hidden").Len())

	entries := core.Logs().FilterMessage("error").All()
	require.Len(t, entries, 1)
	require.Equal(t, "boom", entries[0].ContextMap()["error"])
}

func TestXLogger_NamedSharesLevel(t *testing.T) {
	logger, core := newObservedXLogger(t, LogLevelWarn)
	child := logger.Named("fine-list")
	child.Info("dropped")
	child.Warn("kept")
	require.Equal(t, 1, core.Logs().Len())
	require.Equal(t, "fine-list", core.Logs().All()[0].LoggerName)

	logger.Warn("parent kept")
	require.Equal(t, 2, core.Logs().Len())
	require.NoError(t, child.Close())
	require.NoError(t, logger.Close())
}

func TestXLogger_ErrorStack(t *testing.T) {
	logger, core := newObservedXLogger(t, LogLevelDebug)
	logger.ErrorStack(infra.NewErrorStack("stacked"), "with stack")
	logger.ErrorStack(errors.New("plain"), "without stack")

	entries := core.Logs().All()
	require.Len(t, entries, 2)
	require.Equal(t, "stacked", entries[0].ContextMap()["error"])
	require.Contains(t, entries[0].ContextMap(), "errorStack")
	require.Equal(t, "plain", entries[1].ContextMap()["error"])
}

func TestXLogger_Logf(t *testing.T) {
	logger, core := newObservedXLogger(t, LogLevelDebug)
	logger.Logf(zapcore.WarnLevel, "removed %d of %d", 3, 5)
	require.Equal(t, 1, core.Logs().FilterMessage("removed 3 of 5").Len())
}

func TestXLogger_InvalidOptions(t *testing.T) {
	require.Panics(t, func() {
		NewXLogger(WithXLoggerWriter(_writerMax))
	})
	require.Panics(t, func() {
		NewXLogger(WithXLoggerEncoder(_encMax))
	})
	require.Panics(t, func() {
		NewXLogger(WithXLoggerCore(nil))
	})
}

func TestXLogger_ConsoleCore(t *testing.T) {
	testcases := []struct {
		name    string
		encoder LogEncoderType
		writer  LogOutWriterType
	}{
		{"json stdout", JSON, StdOut},
		{"plain text stderr", PlainText, StdErr},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			logger := NewXLogger(
				WithXLoggerConsoleCore(),
				WithXLoggerLevel(LogLevelDebug),
				WithXLoggerEncoder(tc.encoder),
				WithXLoggerWriter(tc.writer),
			)
			logger.Banner(testBanner{})
			logger.Info("console core", zap.String("case", tc.name))
			require.NoError(tt, logger.Close())
			// Closing twice only syncs.
			require.NoError(tt, logger.Close())
		})
	}
}

func TestGetLogLevelOrDefault(t *testing.T) {
	require.Equal(t, zapcore.DebugLevel, getLogLevelOrDefault(""))
	require.Equal(t, zapcore.WarnLevel, getLogLevelOrDefault("warn"))
	require.Equal(t, zapcore.ErrorLevel, getLogLevelOrDefault("ERROR"))
	require.Equal(t, zapcore.DebugLevel, getLogLevelOrDefault("unknown"))
}

func TestAntsXLogger_AntsPool(t *testing.T) {
	var logger *AntsXLogger
	logger.Printf("nil logger %d", 123)
	require.Nil(t, NewAntsXLogger(nil))

	parent, core := newObservedXLogger(t, LogLevelDebug)
	logger = NewAntsXLogger(parent)
	p, err := antsv2.NewPool(2, antsv2.WithLogger(logger))
	require.NoError(t, err)
	defer p.Release()

	done := make(chan struct{})
	err = p.Submit(func() {
		defer close(done)
		panic("xlogger panic in ants pool")
	})
	require.NoError(t, err)
	<-done
	require.Eventually(t, func() bool {
		return core.Logs().Filter(func(e observer.LoggedEntry) bool {
			return e.LoggerName == "Ants"
		}).Len() > 0
	}, time.Second, 10*time.Millisecond)
}

func TestFxXLogger_Events(t *testing.T) {
	var logger *FxXLogger
	logger.LogEvent(&fxevent.Started{})
	require.Nil(t, NewFxXLogger(nil))

	parent, core := newObservedXLogger(t, LogLevelDebug)
	logger = NewFxXLogger(parent)
	testcases := []struct {
		name   string
		event  fxevent.Event
		failed bool
	}{
		{"on start executing", &fxevent.OnStartExecuting{FunctionName: "run", CallerName: "main"}, false},
		{"on start failed", &fxevent.OnStartExecuted{FunctionName: "run", Err: errors.New("fx error 1")}, true},
		{"on stop executed", &fxevent.OnStopExecuted{FunctionName: "stop", Runtime: time.Millisecond}, false},
		{"supplied", &fxevent.Supplied{TypeName: "*stress.Config"}, false},
		{"provided failed", &fxevent.Provided{OutputTypeNames: []string{"xlog.XLogger"}, Err: errors.New("fx error 2")}, true},
		{"invoked failed", &fxevent.Invoked{FunctionName: "run", Err: errors.New("fx error 3")}, true},
		{"rolling back", &fxevent.RollingBack{StartErr: errors.New("fx error 4")}, true},
		{"started", &fxevent.Started{}, false},
		{"logger initialized", &fxevent.LoggerInitialized{ConstructorName: "NewFxXLogger"}, false},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			before := core.Logs().FilterLevelExact(zapcore.ErrorLevel).Len()
			logger.LogEvent(tc.event)
			after := core.Logs().FilterLevelExact(zapcore.ErrorLevel).Len()
			if tc.failed {
				require.Equal(tt, before+1, after)
			} else {
				require.Equal(tt, before, after)
			}
		})
	}
}
