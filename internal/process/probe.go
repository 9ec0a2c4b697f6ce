// Package process provides non-destructive liveness and uptime probes for
// an arbitrary PID. Nothing is cached: a dead process must never appear
// alive because of stale state.
package process

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	gopsproc "github.com/shirou/gopsutil/v4/process"
	"github.com/tklauser/go-sysconf"
)

// IsRunning reports whether a process with the given PID exists and is
// signalable by the calling user. Existence is probed with signal 0, which
// has no effect on the target. A true result means the process exists, not
// that it is healthy.
func IsRunning(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}

	if errno, ok := err.(syscall.Errno); ok {
		switch errno {
		case syscall.ESRCH:
			// Process does not exist
			return false
		case syscall.EPERM:
			// Process exists but belongs to another user
			return true
		}
	}

	return false
}

// Uptime returns a formatted uptime string for the given PID, recomputed
// from kernel interfaces on every call. The second return value is false
// when uptime is unavailable on this OS or the process accounting data
// cannot be read.
func Uptime(pid int) (string, bool) {
	secs, ok := runningSeconds(pid)
	if !ok {
		return "", false
	}
	return FormatUptime(secs), true
}

func runningSeconds(pid int) (int64, bool) {
	switch runtime.GOOS {
	case "linux":
		return procRunningSeconds(pid)
	case "darwin":
		// No /proc on Darwin; ask the kernel via gopsutil instead
		p, err := gopsproc.NewProcess(int32(pid))
		if err != nil {
			return 0, false
		}
		createdMs, err := p.CreateTime()
		if err != nil || createdMs <= 0 {
			return 0, false
		}
		secs := int64(time.Since(time.UnixMilli(createdMs)).Seconds())
		if secs < 0 {
			return 0, false
		}
		return secs, true
	default:
		return 0, false
	}
}

// procRunningSeconds derives how long a process has been running from
// /proc/<pid>/stat (start time in clock ticks since boot, field index 21)
// and /proc/uptime (system uptime in seconds).
func procRunningSeconds(pid int) (int64, bool) {
	stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0, false
	}

	fields := strings.Fields(string(stat))
	if len(fields) <= 21 {
		return 0, false
	}

	startTicks, err := strconv.ParseInt(fields[21], 10, 64)
	if err != nil {
		return 0, false
	}

	uptimeRaw, err := os.ReadFile("/proc/uptime")
	if err != nil {
		return 0, false
	}

	uptimeFields := strings.Fields(string(uptimeRaw))
	if len(uptimeFields) == 0 {
		return 0, false
	}

	systemUptime, err := strconv.ParseFloat(uptimeFields[0], 64)
	if err != nil {
		return 0, false
	}

	return int64(systemUptime) - startTicks/clockTicksPerSecond(), true
}

// clockTicksPerSecond returns the kernel's process-accounting tick rate
func clockTicksPerSecond() int64 {
	clk, err := sysconf.Sysconf(sysconf.SC_CLK_TCK)
	if err != nil || clk <= 0 {
		return 100
	}
	return clk
}

// FormatUptime renders a duration in seconds as "{h}h {m}m {s}s",
// dropping leading zero units.
func FormatUptime(runningSecs int64) string {
	hours := runningSecs / 3600
	mins := (runningSecs % 3600) / 60
	secs := runningSecs % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, mins, secs)
	case mins > 0:
		return fmt.Sprintf("%dm %ds", mins, secs)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}
