package logger

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var current atomic.Pointer[zap.Logger]

// Init builds the process logger. Development env gets the console encoder.
func Init(level string, appEnv string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if appEnv == "development" {
		config = zap.NewDevelopmentConfig()
	}

	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		parsed = zapcore.InfoLevel
	}
	config.Level.SetLevel(parsed)

	built, err := config.Build()
	if err != nil {
		return nil, err
	}
	current.Store(built)
	return built, nil
}

// L returns the process logger, or a no-op logger before Init.
func L() *zap.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

func Sync() {
	if l := current.Load(); l != nil {
		_ = l.Sync()
	}
}
