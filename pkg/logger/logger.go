package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig controls logger construction.
type LoggerConfig struct {
	// Debug enables development output and debug-level logging.
	Debug bool
}

// NewLogger creates a zap logger. Production config with ISO8601
// timestamps by default; human-readable development config when Debug
// is set.
func NewLogger(cfg *LoggerConfig) (*zap.Logger, error) {
	if cfg == nil {
		cfg = &LoggerConfig{}
	}

	if cfg.Debug {
		c := zap.NewDevelopmentConfig()
		c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return c.Build()
	}

	c := zap.NewProductionConfig()
	c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return c.Build()
}
