package logging

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var global atomic.Pointer[zap.Logger]

// New builds a console logger. Debug mode logs everything; otherwise only
// warnings and errors are shown.
func New(debug bool) (*zap.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// Init builds the process logger and installs it for L.
func Init(debug bool) (*zap.Logger, error) {
	logger, err := New(debug)
	if err != nil {
		return nil, err
	}
	Replace(logger)
	return logger, nil
}

// Replace installs logger for L and returns a func restoring the previous one.
func Replace(logger *zap.Logger) func() {
	prev := global.Swap(logger)
	return func() { global.Store(prev) }
}

// L returns the process logger, or a no-op logger before Init.
func L() *zap.Logger {
	if l := global.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}
