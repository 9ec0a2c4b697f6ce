package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/magpie-dev/magpied/internal/autostart"
	"github.com/magpie-dev/magpied/internal/config"
	"github.com/magpie-dev/magpied/internal/daemon"
	"github.com/magpie-dev/magpied/internal/logger"
	"github.com/magpie-dev/magpied/internal/output"
	"github.com/magpie-dev/magpied/internal/process"
	"github.com/magpie-dev/magpied/internal/sentry"
	"github.com/magpie-dev/magpied/internal/updater"
	"github.com/spf13/cobra"
)

var (
	version = "0.4.2"
	commit  = "release"
	date    = "2026-08-14"
	website = "https://magpie.dev"
)

func main() {
	// Add panic recovery for better error reporting
	defer func() {
		if r := recover(); r != nil {
			if sentry.IsEnabled() {
				sentry.CaptureError(fmt.Errorf("panic: %v", r), "main", "panic_recovery")
				sentry.Flush(2 * time.Second)
			}
			fmt.Fprintf(os.Stderr, "magpied encountered a fatal error: %v\n", r)
			os.Exit(1)
		}
	}()

	configPath := os.Getenv("MAGPIED_CONFIG")
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&logger.Config{
		Level:  cfg.Logging.Level,
		Output: cfg.Logging.Output,
		Color:  cfg.Logging.Color,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if err := sentry.Initialize(cfg, version); err != nil {
		// Don't fail the daemon if error monitoring cannot start
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize error monitoring: %v\n", err)
	}
	defer func() {
		if sentry.IsEnabled() {
			sentry.Flush(2 * time.Second)
			sentry.Close()
		}
	}()

	rootCmd := &cobra.Command{
		Use:   "magpied",
		Short: "Magpie background file-organizing daemon",
		Long: `magpied is the background daemon of Magpie, the terminal file organizer.
It watches configured directories and applies organizing rules while you work.

This binary manages its own host integration: login autostart registration,
liveness and uptime reporting, and self-updating through the package manager
that installed it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose output")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress non-error output")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		runCmd(cfg),
		stopCmd(cfg),
		statusCmd(cfg),
		serviceCmd(cfg),
		updateCmd(cfg),
		checkUpdateCmd(cfg),
		versionCmd(cfg),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newFormatter builds a formatter honoring the shared output flags
func newFormatter(cmd *cobra.Command, cfg *config.Config) *output.Formatter {
	verbose, _ := cmd.Flags().GetBool("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")
	noColor, _ := cmd.Flags().GetBool("no-color")

	formatter := output.NewFormatter(cfg)
	formatter.SetFlags(verbose, quiet, noColor)
	return formatter
}

func runCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the daemon in the foreground",
		Long: `Run the daemon in the foreground until interrupted.

This is the entry point referenced by the autostart descriptors; the service
manager owns the process and restarts are its responsibility.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			return daemon.NewDaemon(cfg).Start()
		},
	}
}

func stopCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop a running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			pm := daemon.NewPIDManager(cfg.Daemon.PIDFile)
			if !pm.IsRunning() {
				formatter.Info("Daemon is not running")
				return pm.RemovePID()
			}

			pid, _ := pm.ReadPID()
			if err := pm.Stop(cfg.Daemon.StopTimeout); err != nil {
				return fmt.Errorf("failed to stop daemon: %w", err)
			}

			formatter.Success("Stopped daemon (PID %d)", pid)
			return nil
		},
	}
}

func statusCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Long:  "Show whether the daemon is running, its uptime, autostart state and installation origin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			pm := daemon.NewPIDManager(cfg.Daemon.PIDFile)
			pid, err := pm.ReadPID()

			switch {
			case err != nil:
				formatter.Plain("Daemon:    not running")
			case !process.IsRunning(pid):
				formatter.Plain("Daemon:    not running (stale PID file for %d)", pid)
			default:
				formatter.Plain("Daemon:    running (PID %d)", pid)
				if uptime, ok := process.Uptime(pid); ok {
					formatter.Plain("Uptime:    %s", uptime)
				} else {
					formatter.Plain("Uptime:    unavailable")
				}
			}

			registrar := autostart.NewRegistrar()
			if registrar.IsEnabled() {
				formatter.Plain("Autostart: enabled")
			} else {
				formatter.Plain("Autostart: disabled")
			}

			method := updater.DetectInstallMethod()
			formatter.Plain("Installed: via %s", method.Name())

			maybeNotifyUpdate(cfg, formatter)
			return nil
		},
	}
}

// maybeNotifyUpdate performs an advisory version check on status display.
// Failures stay silent; the check must never get in the caller's way.
func maybeNotifyUpdate(cfg *config.Config, formatter *output.Formatter) {
	if !cfg.Update.AutoCheck || os.Getenv("MAGPIED_SKIP_UPDATE_CHECK") == "true" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.UpdateTimeout())
	defer cancel()

	checker := updater.NewChecker(cfg.Update.ReleaseURL, version, cfg.UpdateTimeout())
	result := checker.Check(ctx)
	if result.Status == updater.UpdateAvailable {
		formatter.Tip("Update available: v%s - run 'magpied update' to upgrade", result.Latest)
	}
}

func serviceCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage login autostart registration",
		Long: `Manage the daemon's registration with the host service manager.

On macOS this writes a launchd user agent. On Linux it prefers a systemd
user unit when a user-level systemd instance answers, falling back to an
XDG desktop autostart entry.`,
	}

	cmd.AddCommand(
		serviceEnableCmd(cfg),
		serviceDisableCmd(cfg),
		serviceToggleCmd(cfg),
		serviceStatusCmd(cfg),
	)

	return cmd
}

func serviceEnableCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "enable",
		Short: "Enable autostart on login",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			if err := autostart.NewRegistrar().Enable(); err != nil {
				return fmt.Errorf("failed to enable autostart: %w", err)
			}

			formatter.Success("Autostart enabled")
			return nil
		},
	}
}

func serviceDisableCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Disable autostart on login",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			if err := autostart.NewRegistrar().Disable(); err != nil {
				return fmt.Errorf("failed to disable autostart: %w", err)
			}

			formatter.Success("Autostart disabled")
			return nil
		},
	}
}

func serviceToggleCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Toggle autostart on login",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			enabled, err := autostart.NewRegistrar().Toggle()
			if err != nil {
				return fmt.Errorf("failed to toggle autostart: %w", err)
			}

			if enabled {
				formatter.Success("Autostart enabled")
			} else {
				formatter.Success("Autostart disabled")
			}
			return nil
		},
	}
}

func serviceStatusCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show autostart registration state",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			if autostart.NewRegistrar().IsEnabled() {
				formatter.Plain("Autostart: enabled")
			} else {
				formatter.Plain("Autostart: disabled")
			}
			return nil
		},
	}
}

func updateCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update magpied to the latest version",
		Long: `Update magpied through the package manager that installed it.

Homebrew installations are upgraded with brew; everything else is
reinstalled with 'go install'.

Example:
  magpied update              # Check and install the latest version
  magpied update --force      # Install even when the version check fails
  magpied update --yes        # Skip the confirmation prompt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)
			force, _ := cmd.Flags().GetBool("force")
			yes, _ := cmd.Flags().GetBool("yes")

			method := updater.DetectInstallMethod()
			formatter.Info("Installed via %s", method.Name())

			ctx, cancel := context.WithTimeout(context.Background(), cfg.UpdateTimeout())
			defer cancel()

			checker := updater.NewChecker(cfg.Update.ReleaseURL, version, cfg.UpdateTimeout())
			result := checker.Check(ctx)

			switch result.Status {
			case updater.UpToDate:
				if !force {
					formatter.Success("You're already running the latest version (%s)", version)
					return nil
				}
				formatter.Warning("Already at the latest version, reinstalling anyway")
			case updater.UpdateAvailable:
				formatter.Info("New version available!")
				formatter.Plain("   Current: %s", result.Current)
				formatter.Plain("   Latest:  %s", result.Latest)
			case updater.CheckFailed:
				formatter.Warning("Version check failed: %s", result.Reason)
				if !force {
					formatter.Tip("Use --force to update without a successful version check")
					return nil
				}
			}

			if !yes && !force {
				fmt.Printf("\nProceed with update via '%s'? [y/N]: ", method.UpdateCommand())
				var response string
				fmt.Scanln(&response)
				response = strings.ToLower(strings.TrimSpace(response))
				if response != "y" && response != "yes" {
					formatter.Plain("Update cancelled.")
					return nil
				}
			}

			formatter.Info("Running %s ...", method.UpdateCommand())
			if err := updater.NewRunner().Run(method); err != nil {
				sentry.CaptureError(err, "updater", "run_update")
				return fmt.Errorf("update failed: %w", err)
			}

			formatter.Success("Update completed")
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Update even when the version check fails or reports up to date")
	cmd.Flags().Bool("yes", false, "Skip the confirmation prompt")

	return cmd
}

func checkUpdateCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check-update",
		Short: "Check if a new version is available",
		Long: `Query the release registry for a newer published version without
installing anything.

Example:
  magpied check-update        # Check for updates
  magpied check-update --pre  # Include pre-release versions`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)
			includePre, _ := cmd.Flags().GetBool("pre")

			ctx, cancel := context.WithTimeout(context.Background(), cfg.UpdateTimeout())
			defer cancel()

			checker := updater.NewChecker(cfg.Update.ReleaseURL, version, cfg.UpdateTimeout())
			result := checker.Check(ctx)

			switch result.Status {
			case updater.CheckFailed:
				formatter.Warning("Could not check for updates: %s", result.Reason)
				return nil
			case updater.UpToDate:
				formatter.Success("You're running the latest version (%s)", version)
				return nil
			}

			if updater.IsPrerelease(result.Latest) && !includePre {
				formatter.Success("You're running the latest stable version (%s)", version)
				formatter.Tip("Use --pre to include pre-release versions")
				return nil
			}

			formatter.Info("New version available!")
			formatter.Plain("   Current: %s", result.Current)
			formatter.Plain("   Latest:  %s", result.Latest)
			formatter.Tip("Run 'magpied update' to install it")
			return nil
		},
	}

	cmd.Flags().Bool("pre", false, "Include pre-release versions")

	return cmd
}

func versionCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("magpied %s (%s, built %s)\n", version, commit, date)
			fmt.Printf("%s\n", website)
		},
	}
}
