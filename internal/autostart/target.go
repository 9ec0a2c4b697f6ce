package autostart

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Label is the reverse-domain identifier used for the launchd agent
const Label = "dev.magpie.magpied"

// Target is one platform-specific registration mechanism. Each variant
// carries its own descriptor path and rendering; the registrar treats them
// uniformly.
type Target interface {
	// Name identifies the mechanism for logs and status output
	Name() string

	// DescriptorPath returns the platform-appropriate descriptor location
	DescriptorPath() (string, error)

	// Render produces the descriptor content embedding the absolute binary
	// path. Service managers launch with a minimal environment, so a bare
	// command name would not resolve.
	Render(binaryPath string) string

	// NeedsReload reports whether the service manager must be reloaded
	// after the descriptor changes
	NeedsReload() bool
}

// Detect selects the registration mechanism for the current host, or nil if
// none exists. Evaluated fresh on every call since service-manager
// availability can change between invocations.
func Detect(run RunCommand) Target {
	switch runtime.GOOS {
	case "darwin":
		return LaunchAgent{}
	case "linux":
		if systemdAvailable(run) {
			return SystemdUser{}
		}
		return DesktopEntry{}
	default:
		return nil
	}
}

// systemdAvailable probes whether a user-level systemd instance answers
func systemdAvailable(run RunCommand) bool {
	_, err := run("systemctl", "--user", "--version")
	return err == nil
}

// LaunchAgent registers via a launchd user agent plist on macOS
type LaunchAgent struct{}

func (LaunchAgent) Name() string { return "launchd-agent" }

func (LaunchAgent) DescriptorPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, "Library", "LaunchAgents", Label+".plist"), nil
}

func (LaunchAgent) Render(binaryPath string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>%s</string>
	<key>ProgramArguments</key>
	<array>
		<string>%s</string>
		<string>run</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<false/>
	<key>StandardOutPath</key>
	<string>/tmp/magpied.stdout.log</string>
	<key>StandardErrorPath</key>
	<string>/tmp/magpied.stderr.log</string>
</dict>
</plist>
`, Label, binaryPath)
}

func (LaunchAgent) NeedsReload() bool { return false }

// SystemdUser registers via a systemd user unit on Linux
type SystemdUser struct{}

func (SystemdUser) Name() string { return "systemd-user" }

func (SystemdUser) DescriptorPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "systemd", "user", "magpied.service"), nil
}

func (SystemdUser) Render(binaryPath string) string {
	return fmt.Sprintf(`[Unit]
Description=Magpie File Organizer Daemon
After=default.target

[Service]
Type=simple
ExecStart=%s run
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`, binaryPath)
}

func (SystemdUser) NeedsReload() bool { return true }

// DesktopEntry registers via the XDG desktop autostart convention, the
// fallback when no user-level systemd instance answers
type DesktopEntry struct{}

func (DesktopEntry) Name() string { return "desktop-autostart" }

func (DesktopEntry) DescriptorPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, "autostart", "magpied.desktop"), nil
}

func (DesktopEntry) Render(binaryPath string) string {
	return fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=Magpie Daemon
Exec=%s run
Hidden=false
NoDisplay=true
X-GNOME-Autostart-enabled=true
`, binaryPath)
}

func (DesktopEntry) NeedsReload() bool { return false }
