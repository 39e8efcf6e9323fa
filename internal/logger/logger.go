package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LoggerConfig struct {
	Debug bool

	// Console switches to a human readable encoder on stderr, used by the
	// interactive commands so log lines don't drown the rendered view.
	Console bool
}

func NewLogger(cfg *LoggerConfig, options ...zap.Option) (*zap.Logger, error) {
	mergedOptions := []zap.Option{
		zap.WithCaller(true),
	}
	mergedOptions = append(mergedOptions, options...)

	var c zap.Config
	if cfg.Console {
		c = zap.NewDevelopmentConfig()
		c.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		c.OutputPaths = []string{"stderr"}
		c.DisableStacktrace = true
	} else {
		c = zap.NewProductionConfig()
		c.EncoderConfig = zap.NewProductionEncoderConfig()
	}
	c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	switch {
	case cfg.Debug:
		c.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case cfg.Console:
		c.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	default:
		c.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return c.Build(mergedOptions...)
}
