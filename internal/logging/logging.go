package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"spotprices/internal/config"
)

// New builds the production JSON logger. Output goes to stdout, or to a
// size-rotated file when cfg.File is set.
func New(cfg config.Log) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	if cfg.File == "" {
		logCfg := zap.NewProductionConfig()
		logCfg.Level = level
		logCfg.OutputPaths = []string{"stdout"}
		logCfg.ErrorOutputPaths = []string{"stdout"}
		logCfg.Sampling = nil
		return logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(rotator),
		level,
	)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)), nil
}
