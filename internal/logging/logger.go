// Package logging provides config-driven categorized logging for linkchat.
// Logs are written to a single file (logging.file) because the interactive
// widget owns the terminal. When logging.debug_mode is false nothing is written.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot    Category = "boot"    // Startup, flag and config resolution
	CategoryConfig  Category = "config"  // Config file, .env and environment overrides
	CategorySession Category = "session" // Widget lifecycle and phase transitions
	CategoryAPI     Category = "api"     // Calls to the RAG service
	CategoryUI      Category = "ui"      // Input handling, debounce, notifications
)

// Options mirrors config.LoggingConfig to avoid an import cycle.
type Options struct {
	DebugMode  bool
	Level      string          // debug, info, warn, error
	Format     string          // json, console
	File       string          // log file path
	Categories map[string]bool // per-category switch; missing = enabled
}

// Logger is a category-scoped wrapper around a zap SugaredLogger.
type Logger struct {
	sugar *zap.SugaredLogger
}

var (
	mu      sync.RWMutex
	base    = zap.NewNop()
	opts    Options
	loggers = make(map[Category]*Logger)
)

// Initialize builds the process logger from opts.
// Calling it again replaces the previous logger.
func Initialize(o Options) error {
	if !o.DebugMode {
		install(zap.NewNop(), o)
		return nil
	}
	if o.File == "" {
		return fmt.Errorf("logging file path required in debug mode")
	}
	if err := os.MkdirAll(filepath.Dir(o.File), 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	cfg := zap.NewProductionConfig()
	if o.Format == "console" {
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(o.Level))
	cfg.Sampling = nil
	cfg.OutputPaths = []string{o.File}
	cfg.ErrorOutputPaths = []string{o.File}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	install(l, o)

	boot := Get(CategoryBoot)
	boot.Info("=== linkchat logging initialized ===")
	boot.Debug("Log file: %s, level: %s, format: %s", o.File, o.Level, o.Format)
	return nil
}

// InitializeWithCore installs a logger backed by core. Used by tests to
// capture entries with zaptest/observer.
func InitializeWithCore(core zapcore.Core, o Options) {
	install(zap.New(core), o)
}

func install(l *zap.Logger, o Options) {
	mu.Lock()
	defer mu.Unlock()
	_ = base.Sync()
	base = l
	opts = o
	loggers = make(map[Category]*Logger)
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "warning":
		return zapcore.WarnLevel
	case "":
		return zapcore.InfoLevel
	}
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// IsDebugMode returns whether logging is enabled at all
func IsDebugMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return opts.DebugMode
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return categoryEnabledLocked(category)
}

func categoryEnabledLocked(category Category) bool {
	if !opts.DebugMode {
		return false
	}
	enabled, ok := opts.Categories[string(category)]
	if !ok {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode or the category is disabled.
func Get(category Category) *Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	z := zap.NewNop()
	if categoryEnabledLocked(category) {
		z = base.Named(string(category))
	}
	l := &Logger{sugar: z.Sugar()}
	loggers[category] = l
	return l
}

// Sync flushes buffered entries. Call before exit.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return base.Sync()
}

// With returns a logger that adds the given key/value pairs to every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}
