// Package logging holds the process-wide zap logger used by the renderer.
//
// By default nothing is logged. Commands call Set with a configured logger;
// library packages fetch it with L and name a child logger per component.
package logging

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// loggerPtr stores the active logger. Accessed atomically so Set can race
// with logging from batch workers.
var loggerPtr atomic.Pointer[zap.Logger]

func init() {
	loggerPtr.Store(zap.NewNop())
}

// Set replaces the active logger. Passing nil restores the silent default.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	loggerPtr.Store(l)
}

// L returns the active logger.
func L() *zap.Logger {
	return loggerPtr.Load()
}

// New builds the logger used by the command-line tools.
// Verbose selects the development encoder at debug level.
func New(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
