package updater

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/magpie-dev/magpied/internal/logger"
)

// installPackage is the path `go install` resolves this daemon from
const installPackage = "github.com/magpie-dev/magpied@latest"

// defaultFormula is used when brew cannot report the published formula name
const defaultFormula = "magpied"

// Method identifies which package manager produced the running binary
type Method int

const (
	// GoInstall means the binary came from the Go toolchain installer
	GoInstall Method = iota

	// Homebrew means the binary lives under Homebrew's install tree
	Homebrew
)

// InstallMethod describes the detected installation origin
type InstallMethod struct {
	Method  Method
	Formula string
}

// Name returns the package manager's display name
func (m InstallMethod) Name() string {
	switch m.Method {
	case Homebrew:
		return "brew"
	default:
		return "go"
	}
}

// UpdateCommand returns the user-facing update command line
func (m InstallMethod) UpdateCommand() string {
	switch m.Method {
	case Homebrew:
		return "brew upgrade " + m.Formula
	default:
		return "go install " + installPackage
	}
}

// RunCommand executes an external command, returning its captured output
// and exit code. A non-nil error means the command could not be launched at
// all. Injectable so tests can substitute canned responses.
type RunCommand func(name string, args ...string) (output []byte, exitCode int, err error)

func execRun(name string, args ...string) ([]byte, int, error) {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err == nil {
		return out, 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out, exitErr.ExitCode(), nil
	}
	return nil, -1, err
}

// DetectInstallMethod infers which package manager produced the running
// executable. Derived once per process and immutable thereafter.
var DetectInstallMethod = sync.OnceValue(func() InstallMethod {
	return detectInstallMethod(os.Executable, execRun)
})

func detectInstallMethod(executable func() (string, error), run RunCommand) InstallMethod {
	exePath, err := executable()
	if err != nil {
		return InstallMethod{Method: GoInstall}
	}

	if strings.Contains(exePath, "/Cellar/") || strings.Contains(exePath, "/homebrew/") {
		formula := defaultFormula
		if name, ok := brewFormulaName(run); ok {
			formula = name
		}
		return InstallMethod{Method: Homebrew, Formula: formula}
	}

	return InstallMethod{Method: GoInstall}
}

// brewFormulaName asks brew for the published full formula name, which
// differs from the default when installed from a tap
func brewFormulaName(run RunCommand) (string, bool) {
	out, code, err := run("brew", "info", "--json=v2", defaultFormula)
	if err != nil || code != 0 {
		return "", false
	}

	var info struct {
		Formulae []struct {
			FullName string `json:"full_name"`
		} `json:"formulae"`
	}
	if err := json.Unmarshal(out, &info); err != nil {
		return "", false
	}
	if len(info.Formulae) == 0 || info.Formulae[0].FullName == "" {
		return "", false
	}
	return info.Formulae[0].FullName, true
}

// Runner drives the detected package manager's install and upgrade commands
type Runner struct {
	run    RunCommand
	logger *logger.Logger
}

// NewRunner creates a runner that invokes the real package managers
func NewRunner() *Runner {
	return &Runner{
		run:    execRun,
		logger: logger.GetLogger().WithComponent("updater"),
	}
}

// Run updates the daemon through the given installation method. For
// Homebrew the catalog is refreshed best-effort first; an upgrade that
// exits non-zero (common when already current) is retried once with a
// reinstall. There are no further retries and no rollback.
func (r *Runner) Run(method InstallMethod) error {
	switch method.Method {
	case Homebrew:
		return r.runBrew(method.Formula)
	default:
		return r.runGoInstall()
	}
}

func (r *Runner) runGoInstall() error {
	r.logger.Info().Str("package", installPackage).Msg("updating via go install")

	_, code, err := r.run("go", "install", installPackage)
	if err != nil {
		return fmt.Errorf("failed to run go: %w", err)
	}
	if code != 0 {
		return fmt.Errorf("update failed with status %d", code)
	}
	return nil
}

func (r *Runner) runBrew(formula string) error {
	r.logger.Info().Str("formula", formula).Msg("updating via brew")

	// Refresh the formula catalog first, best effort
	if _, code, err := r.run("brew", "update"); err != nil || code != 0 {
		r.logger.Debug().Int("status", code).Msg("brew update failed, continuing")
	}

	_, code, err := r.run("brew", "upgrade", formula)
	if err != nil {
		return fmt.Errorf("failed to run brew: %w", err)
	}
	if code == 0 {
		return nil
	}

	// upgrade exits non-zero when already up to date, try reinstall
	_, code, err = r.run("brew", "reinstall", formula)
	if err != nil {
		return fmt.Errorf("failed to run brew: %w", err)
	}
	if code != 0 {
		return fmt.Errorf("update failed with status %d", code)
	}
	return nil
}
