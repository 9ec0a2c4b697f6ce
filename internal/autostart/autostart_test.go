package autostart

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/magpie-dev/magpied/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	logger.Init(logger.DefaultConfig())
	os.Exit(m.Run())
}

type fakeRunner struct {
	calls [][]string
	err   error
}

func (f *fakeRunner) run(name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return nil, f.err
}

// newTestRegistrar builds a registrar pinned to a chosen target with the
// descriptor directory redirected into a temp HOME
func newTestRegistrar(t *testing.T, target Target, runner *fakeRunner) *Registrar {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")

	return &Registrar{
		run:    runner.run,
		locate: func() (string, error) { return "/usr/local/bin/magpied", nil },
		detect: func(RunCommand) Target { return target },
		logger: logger.GetLogger().WithComponent("autostart-test"),
	}
}

func allTargets() []Target {
	return []Target{LaunchAgent{}, SystemdUser{}, DesktopEntry{}}
}

func TestEnableDisableRoundTrip(t *testing.T) {
	for _, target := range allTargets() {
		t.Run(target.Name(), func(t *testing.T) {
			r := newTestRegistrar(t, target, &fakeRunner{})

			assert.False(t, r.IsEnabled(), "fresh system must report disabled")

			require.NoError(t, r.Enable())
			assert.True(t, r.IsEnabled())

			path, err := target.DescriptorPath()
			require.NoError(t, err)
			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Contains(t, string(content), "/usr/local/bin/magpied")
			assert.Contains(t, string(content), "run")

			require.NoError(t, r.Disable())
			assert.False(t, r.IsEnabled())
			_, err = os.Stat(path)
			assert.True(t, os.IsNotExist(err), "descriptor must be removed")
		})
	}
}

func TestEnableIsIdempotent(t *testing.T) {
	r := newTestRegistrar(t, SystemdUser{}, &fakeRunner{})

	require.NoError(t, r.Enable())
	path, err := SystemdUser{}.DescriptorPath()
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, r.Enable())
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second, "re-enable must produce byte-identical content")
}

func TestDisableWhenAlreadyDisabled(t *testing.T) {
	r := newTestRegistrar(t, LaunchAgent{}, &fakeRunner{})

	assert.False(t, r.IsEnabled())
	assert.NoError(t, r.Disable())
}

func TestToggleTwiceRestoresState(t *testing.T) {
	r := newTestRegistrar(t, DesktopEntry{}, &fakeRunner{})

	enabled, err := r.Toggle()
	require.NoError(t, err)
	assert.True(t, enabled)

	enabled, err = r.Toggle()
	require.NoError(t, err)
	assert.False(t, enabled)
	assert.False(t, r.IsEnabled())
}

func TestUnsupportedPlatform(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRegistrar(t, nil, runner)
	r.detect = func(RunCommand) Target { return nil }

	assert.False(t, r.IsEnabled())
	assert.ErrorIs(t, r.Enable(), ErrUnsupported)
	assert.ErrorIs(t, r.Disable(), ErrUnsupported)

	_, err := r.Toggle()
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestEnableTriggersSystemdReload(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRegistrar(t, SystemdUser{}, runner)

	require.NoError(t, r.Enable())

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"systemctl", "--user", "daemon-reload"}, runner.calls[0])
}

func TestReloadFailureIsSwallowed(t *testing.T) {
	runner := &fakeRunner{err: errors.New("systemctl not reachable")}
	r := newTestRegistrar(t, SystemdUser{}, runner)

	assert.NoError(t, r.Enable(), "reload is advisory, not load-bearing")
	assert.True(t, r.IsEnabled())
}

func TestNoReloadForLaunchAgent(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRegistrar(t, LaunchAgent{}, runner)

	require.NoError(t, r.Enable())
	assert.Empty(t, runner.calls)
}

func TestEnableFailsWithoutBinary(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRegistrar(t, SystemdUser{}, runner)
	r.locate = func() (string, error) { return "", ErrBinaryNotFound }

	assert.ErrorIs(t, r.Enable(), ErrBinaryNotFound)
	assert.False(t, r.IsEnabled(), "no descriptor may be written without a resolved path")
}

func TestDetectPrefersSystemdOnLinux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only detection path")
	}

	available := &fakeRunner{}
	target := Detect(available.run)
	require.NotNil(t, target)
	assert.Equal(t, "systemd-user", target.Name())
	require.Len(t, available.calls, 1)
	assert.Equal(t, []string{"systemctl", "--user", "--version"}, available.calls[0])

	unavailable := &fakeRunner{err: errors.New("no systemd")}
	target = Detect(unavailable.run)
	require.NotNil(t, target)
	assert.Equal(t, "desktop-autostart", target.Name())
}

func TestDescriptorPathsLandUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")

	for _, target := range allTargets() {
		path, err := target.DescriptorPath()
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(path, home), "descriptor for %s must be user-scoped: %s", target.Name(), path)
		assert.True(t, filepath.IsAbs(path))
	}
}

func TestRenderEmbedsAbsolutePath(t *testing.T) {
	for _, target := range allTargets() {
		content := target.Render("/opt/homebrew/bin/magpied")
		assert.Contains(t, content, "/opt/homebrew/bin/magpied", target.Name())
	}
}
