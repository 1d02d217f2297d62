package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestConfigLevels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
		dev   bool
	}{
		{"debug", zapcore.DebugLevel, true},
		{"info", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"chatty", zapcore.InfoLevel, false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := Config(tt.level, "console")
			assert.Equal(t, tt.want, cfg.Level.Level())
			assert.Equal(t, tt.dev, cfg.Development)
			assert.Equal(t, "console", cfg.Encoding)
			assert.Equal(t, "ts", cfg.EncoderConfig.TimeKey)
		})
	}
}
