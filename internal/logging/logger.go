// Package logging provides categorized logging for grounds.
// Each subsystem logs through a named zap logger; when logging is not
// initialized every call is a silent no-op, so library code can log
// unconditionally.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system.
type Category string

const (
	CategoryBoot    Category = "boot"    // Startup and wiring
	CategoryAPI     Category = "api"     // Backend HTTP calls
	CategoryReport  Category = "report"  // Normalization and diagnostics
	CategoryRepair  Category = "repair"  // Repair/continuation passes
	CategoryCompare Category = "compare" // Fan-out orchestration
)

var (
	mu   sync.RWMutex
	root = zap.NewNop()
)

// Initialize installs a real logger. Debug enables development encoding and
// debug-level output; otherwise a terse production config is used. Safe to
// call more than once; the last call wins.
func Initialize(debug bool) error {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	mu.Lock()
	root = logger
	mu.Unlock()
	return nil
}

// SetLogger replaces the root logger. Used by tests to capture output.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		l = zap.NewNop()
	}
	root = l
}

// Get returns a sugared logger named after the category.
func Get(category Category) *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return root.Named(string(category)).Sugar()
}

// Sync flushes buffered log entries. Call at shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
}

// Convenience functions so call sites stay one-liners.

// Boot logs to the boot category.
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Infof(format, args...)
}

// API logs to the api category.
func API(format string, args ...interface{}) {
	Get(CategoryAPI).Infof(format, args...)
}

// APIDebug logs debug to the api category.
func APIDebug(format string, args ...interface{}) {
	Get(CategoryAPI).Debugf(format, args...)
}

// APIWarn logs warning to the api category.
func APIWarn(format string, args ...interface{}) {
	Get(CategoryAPI).Warnf(format, args...)
}

// Report logs to the report category.
func Report(format string, args ...interface{}) {
	Get(CategoryReport).Infof(format, args...)
}

// ReportDebug logs debug to the report category.
func ReportDebug(format string, args ...interface{}) {
	Get(CategoryReport).Debugf(format, args...)
}

// Repair logs to the repair category.
func Repair(format string, args ...interface{}) {
	Get(CategoryRepair).Infof(format, args...)
}

// RepairWarn logs warning to the repair category.
func RepairWarn(format string, args ...interface{}) {
	Get(CategoryRepair).Warnf(format, args...)
}

// Compare logs to the compare category.
func Compare(format string, args ...interface{}) {
	Get(CategoryCompare).Infof(format, args...)
}

// CompareWarn logs warning to the compare category.
func CompareWarn(format string, args ...interface{}) {
	Get(CategoryCompare).Warnf(format, args...)
}
