package xlog

import (
	"go.uber.org/zap/zapcore"
)

var _ XLogCore = (*fileCore)(nil)

type FileCoreConfig struct {
	FilePath       string `json:"filePath" yaml:"filePath"`
	Filename       string `json:"filename" yaml:"filename"`
	FileMaxSize    string `json:"fileMaxSize" yaml:"fileMaxSize"`
	FileMaxBackups int    `json:"fileMaxBackups" yaml:"fileMaxBackups"`
}

// fileCore writes into a RollingLog, the writer type is ignored.
type fileCore struct {
	cfg FileCoreConfig
}

func (fc *fileCore) Build(
	lvlEnabler zapcore.LevelEnabler,
	encoder LogEncoderType,
	_ LogOutWriterType,
	lvlEnc zapcore.LevelEncoder,
	tsEnc zapcore.TimeEncoder,
) (core zapcore.Core, stop func() error, err error) {
	rolling := &RollingLog{
		FilePath:       fc.cfg.FilePath,
		Filename:       fc.cfg.Filename,
		FileMaxSize:    fc.cfg.FileMaxSize,
		FileMaxBackups: fc.cfg.FileMaxBackups,
	}
	if err = rolling.initialize(); err != nil {
		return nil, nil, err
	}
	ws := zapcore.Lock(rolling)
	core = zapcore.NewCore(getEncoderByType(encoder)(newEncoderConfig(lvlEnc, tsEnc)), ws, lvlEnabler)
	return core, rolling.Close, nil
}

func WithXLoggerFileCore(cfg *FileCoreConfig) XLoggerOption {
	return func(c *loggerCfg) error {
		fc := &fileCore{}
		if cfg != nil {
			fc.cfg = *cfg
		}
		c.core = fc
		return nil
	}
}
