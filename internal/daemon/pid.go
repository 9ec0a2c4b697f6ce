package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/magpie-dev/magpied/internal/process"
)

// PIDManager handles PID file operations for daemon lifecycle management
type PIDManager struct {
	pidFile string
}

// NewPIDManager creates a new PID manager instance
func NewPIDManager(pidFile string) *PIDManager {
	return &PIDManager{pidFile: pidFile}
}

// WritePID writes the current process PID to the PID file
func (pm *PIDManager) WritePID() error {
	dir := filepath.Dir(pm.pidFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create PID directory %s: %w", dir, err)
	}

	if pm.IsRunning() {
		existingPID, _ := pm.ReadPID()
		return fmt.Errorf("daemon already running with PID %d", existingPID)
	}

	content := fmt.Sprintf("%d\n", os.Getpid())

	// Write atomically by creating temp file and renaming
	tempFile := pm.pidFile + ".tmp"
	if err := os.WriteFile(tempFile, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write temporary PID file: %w", err)
	}

	if err := os.Rename(tempFile, pm.pidFile); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename PID file: %w", err)
	}

	return nil
}

// ReadPID reads the PID from the PID file
func (pm *PIDManager) ReadPID() (int, error) {
	content, err := os.ReadFile(pm.pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("PID file does not exist")
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pidStr := strings.TrimSpace(string(content))
	if pidStr == "" {
		return 0, fmt.Errorf("PID file is empty")
	}

	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %s", pidStr)
	}

	if pid <= 0 {
		return 0, fmt.Errorf("invalid PID value: %d", pid)
	}

	return pid, nil
}

// IsRunning checks if the daemon process recorded in the PID file is alive
func (pm *PIDManager) IsRunning() bool {
	pid, err := pm.ReadPID()
	if err != nil {
		return false
	}
	return process.IsRunning(pid)
}

// RemovePID removes the PID file
func (pm *PIDManager) RemovePID() error {
	err := os.Remove(pm.pidFile)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// Stop terminates the daemon recorded in the PID file, waiting up to
// timeout for a graceful exit before escalating to SIGKILL
func (pm *PIDManager) Stop(timeout time.Duration) error {
	pid, err := pm.ReadPID()
	if err != nil {
		return fmt.Errorf("failed to read PID: %w", err)
	}

	if !process.IsRunning(pid) {
		// Process not running, just clean up the stale PID file
		return pm.RemovePID()
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}

	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to signal process %d: %w", pid, err)
	}

	deadline := time.After(timeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			proc.Signal(syscall.SIGKILL)
			return pm.RemovePID()
		case <-ticker.C:
			if !process.IsRunning(pid) {
				return pm.RemovePID()
			}
		}
	}
}

// ValidatePIDFile removes a PID file that is unreadable or points at a dead
// process, so a stale file never blocks a fresh start
func (pm *PIDManager) ValidatePIDFile() error {
	if _, err := os.Stat(pm.pidFile); os.IsNotExist(err) {
		return nil
	}

	pid, err := pm.ReadPID()
	if err != nil {
		pm.RemovePID()
		return fmt.Errorf("removed invalid PID file: %w", err)
	}

	if !process.IsRunning(pid) {
		pm.RemovePID()
		return fmt.Errorf("removed stale PID file for process %d", pid)
	}

	return nil
}

// GetPIDFile returns the path to the PID file
func (pm *PIDManager) GetPIDFile() string {
	return pm.pidFile
}
