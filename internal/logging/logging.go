// Package logging wires zap for the whole process. Components ask for a
// named child logger so every line carries its origin ("whatsapp",
// "reminder", ...).
package logging

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.Mutex
	root *zap.Logger
)

// Init builds the process-wide logger. Debug mode switches the level and
// keeps caller annotations; production output stays on the console encoder
// so operators can read it without tooling.
func Init(debug bool) *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if root != nil {
		return root
	}

	level := zapcore.InfoLevel
	if debug || os.Getenv("JIVA_DEBUG") == "1" {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		level,
	)

	opts := []zap.Option{zap.ErrorOutput(zapcore.Lock(os.Stderr))}
	if level == zapcore.DebugLevel {
		opts = append(opts, zap.AddCaller())
	}

	root = zap.New(core, opts...)
	return root
}

// L returns the root logger, initializing it lazily with defaults when a
// caller logs before Init ran (tests, one-off commands).
func L() *zap.Logger {
	mu.Lock()
	ready := root != nil
	mu.Unlock()
	if !ready {
		return Init(false)
	}
	return root
}

// Named is shorthand for a component-scoped child of the root logger.
func Named(component string) *zap.Logger {
	return L().Named(component)
}

// Sync flushes buffered log entries. Called on shutdown paths.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	if root != nil {
		_ = root.Sync()
	}
}
