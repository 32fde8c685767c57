package logger

import (
	"os"

	"quiz-funnel/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log = zap.NewNop()

// Initialize replaces the global logger. Until it is called every log call is discarded.
func Initialize(loggerCfg config.LoggerConfig) error {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	level := zapcore.InfoLevel
	if loggerCfg.Level != "" {
		if err := level.Set(loggerCfg.Level); err != nil {
			return err
		}
	}

	var encoder zapcore.Encoder
	if loggerCfg.Env == "production" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	sink := zapcore.Lock(os.Stdout)
	if loggerCfg.Output == "stderr" {
		sink = zapcore.Lock(os.Stderr)
	}

	log = zap.New(zapcore.NewCore(encoder, sink, level),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	return nil
}

// Get returns the global logger instance
func Get() *zap.Logger {
	return log
}

// Component returns a named child of the global logger with the given fields attached.
func Component(name string, fields ...zap.Field) *zap.Logger {
	return log.Named(name).With(fields...)
}

// Sync flushes any buffered log entries
func Sync() error {
	return log.Sync()
}
