// Package daemon owns the magpied process lifecycle: the PID file and the
// foreground run loop the service descriptors point at.
package daemon

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/magpie-dev/magpied/internal/config"
	"github.com/magpie-dev/magpied/internal/logger"
)

// Daemon is the foreground daemon process
type Daemon struct {
	config     *config.Config
	logger     *logger.Logger
	pidManager *PIDManager
	instanceID string
}

// NewDaemon creates a new daemon instance
func NewDaemon(cfg *config.Config) *Daemon {
	return &Daemon{
		config:     cfg,
		logger:     logger.GetLogger().WithComponent("daemon"),
		pidManager: NewPIDManager(cfg.Daemon.PIDFile),
		instanceID: uuid.NewString(),
	}
}

// Start runs the daemon in the foreground until SIGINT or SIGTERM. This is
// what the service manager launches via the `run` subcommand.
func (d *Daemon) Start() error {
	if err := d.pidManager.ValidatePIDFile(); err != nil {
		d.logger.WithError(err).Warn().Msg("cleaned up stale PID file")
	}

	if d.pidManager.IsRunning() {
		existingPID, _ := d.pidManager.ReadPID()
		return fmt.Errorf("daemon already running with PID %d", existingPID)
	}

	if err := d.pidManager.WritePID(); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	defer func() {
		if err := d.pidManager.RemovePID(); err != nil {
			d.logger.WithError(err).Error().Msg("failed to remove PID file")
		}
	}()

	d.logger.Info().
		Str("instance_id", d.instanceID).
		Int("pid", os.Getpid()).
		Str("pid_file", d.pidManager.GetPIDFile()).
		Msg("daemon started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	sig := <-sigChan
	d.logger.Info().
		Str("signal", sig.String()).
		Str("instance_id", d.instanceID).
		Msg("daemon shutting down")

	return nil
}

// InstanceID returns the per-run identifier embedded in log lines
func (d *Daemon) InstanceID() string {
	return d.instanceID
}
