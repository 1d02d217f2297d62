package logging

import (
	"github.com/KeithSSmith/switcheolytics-api/pkg/utils"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger from LOG_LEVEL and LOG_ENCODING.
func New() (*zap.Logger, error) {
	cfg := Config(utils.Env("LOG_LEVEL", "info"), utils.Env("LOG_ENCODING", "json"))
	return cfg.Build()
}

// Config returns the production config at the given level. Unknown levels fall back to info.
func Config(level, encoding string) zap.Config {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = encoding

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	if lvl == zapcore.DebugLevel {
		cfg.Development = true
	}

	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}
