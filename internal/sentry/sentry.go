// Package sentry provides optional crash reporting. It is disabled unless a
// DSN is configured; every function is safe to call when disabled.
package sentry

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	sentrygo "github.com/getsentry/sentry-go"
	"github.com/magpie-dev/magpied/internal/config"
	"github.com/magpie-dev/magpied/internal/logger"
)

var (
	mu          sync.RWMutex
	initialized bool
)

// Initialize sets up the Sentry SDK from configuration
func Initialize(cfg *config.Config, version string) error {
	mu.Lock()
	defer mu.Unlock()

	if cfg == nil || !cfg.Sentry.Enabled || cfg.Sentry.DSN == "" {
		logger.GetLogger().WithComponent("sentry").Debug().Msg("error monitoring disabled")
		return nil
	}

	err := sentrygo.Init(sentrygo.ClientOptions{
		Dsn:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
		Release:     "magpied@" + version,
		SampleRate:  cfg.Sentry.SampleRate,
		Debug:       cfg.Sentry.Debug,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}

	sentrygo.ConfigureScope(func(scope *sentrygo.Scope) {
		scope.SetTag("os", runtime.GOOS)
		scope.SetTag("arch", runtime.GOARCH)
	})

	initialized = true
	return nil
}

// IsEnabled reports whether crash reporting is active
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return initialized
}

// CaptureError reports an error tagged with component and operation
func CaptureError(err error, component, operation string) {
	if err == nil || !IsEnabled() {
		return
	}

	sentrygo.WithScope(func(scope *sentrygo.Scope) {
		scope.SetTag("component", component)
		scope.SetTag("operation", operation)
		sentrygo.CaptureException(err)
	})
}

// Flush waits up to timeout for buffered events to be delivered
func Flush(timeout time.Duration) bool {
	if !IsEnabled() {
		return true
	}
	return sentrygo.Flush(timeout)
}

// Close flushes and shuts down the client
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if !initialized {
		return
	}
	sentrygo.Flush(2 * time.Second)
	initialized = false
}
