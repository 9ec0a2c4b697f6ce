// Package autostart registers and deregisters the daemon with the host's
// service manager so it starts on login.
package autostart

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magpie-dev/magpied/internal/logger"
)

var (
	// ErrUnsupported indicates no known registration mechanism on this OS
	ErrUnsupported = errors.New("autostart is not supported on this platform")

	// ErrBinaryNotFound indicates the daemon binary could not be located
	ErrBinaryNotFound = errors.New("could not find magpied binary, make sure it is installed and in PATH")
)

// RunCommand executes an external command and returns its combined output.
// It is injectable so tests can substitute canned responses for system tools.
type RunCommand func(name string, args ...string) ([]byte, error)

func execRun(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

// Registrar manages the login-autostart registration for the daemon.
// The enabled state is the existence of the platform descriptor file;
// there is no separate flag to get out of sync.
type Registrar struct {
	run    RunCommand
	locate func() (string, error)
	detect func(run RunCommand) Target
	logger *logger.Logger
}

// NewRegistrar creates a registrar wired to the real host
func NewRegistrar() *Registrar {
	return &Registrar{
		run:    execRun,
		locate: LocateBinary,
		detect: Detect,
		logger: logger.GetLogger().WithComponent("autostart"),
	}
}

// IsEnabled reports whether the autostart descriptor exists for the current
// platform target. Unsupported platforms are reported as disabled.
func (r *Registrar) IsEnabled() bool {
	target := r.detect(r.run)
	if target == nil {
		return false
	}

	path, err := target.DescriptorPath()
	if err != nil {
		return false
	}

	_, err = os.Stat(path)
	return err == nil
}

// Enable writes the platform descriptor so the daemon starts on login.
// Calling it again with an unchanged binary path rewrites identical content.
func (r *Registrar) Enable() error {
	target := r.detect(r.run)
	if target == nil {
		return ErrUnsupported
	}

	binaryPath, err := r.locate()
	if err != nil {
		return err
	}

	path, err := target.DescriptorPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create descriptor directory: %w", err)
	}

	content := target.Render(binaryPath)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write autostart descriptor: %w", err)
	}

	r.logger.Info().
		Str("target", target.Name()).
		Str("descriptor", path).
		Str("binary", binaryPath).
		Msg("autostart enabled")

	r.reload(target)
	return nil
}

// Disable removes the platform descriptor. Removing a descriptor that does
// not exist is a no-op, not an error.
func (r *Registrar) Disable() error {
	target := r.detect(r.run)
	if target == nil {
		return ErrUnsupported
	}

	path, err := target.DescriptorPath()
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove autostart descriptor: %w", err)
	}

	r.logger.Info().
		Str("target", target.Name()).
		Str("descriptor", path).
		Msg("autostart disabled")

	r.reload(target)
	return nil
}

// Toggle flips the autostart state and returns the new enabled state.
// Not atomic against concurrent external edits of the descriptor; a racing
// caller may observe a stale state.
func (r *Registrar) Toggle() (bool, error) {
	if r.IsEnabled() {
		if err := r.Disable(); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := r.Enable(); err != nil {
		return false, err
	}
	return true, nil
}

// reload nudges the service manager to pick up descriptor changes.
// Reload is advisory, not load-bearing, so failures are swallowed.
func (r *Registrar) reload(target Target) {
	if !target.NeedsReload() {
		return
	}

	if _, err := r.run("systemctl", "--user", "daemon-reload"); err != nil {
		r.logger.WithError(err).Debug().Msg("systemd reload failed")
	}
}
