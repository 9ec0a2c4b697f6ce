package autostart

import (
	"os"
	"os/exec"
	"path/filepath"
)

// binaryName is the daemon executable the descriptors must point at
const binaryName = "magpied"

// commonInstallDirs are scanned when PATH resolution fails
var commonInstallDirs = []string{
	"/usr/local/bin",
	"/opt/homebrew/bin",
	"/usr/bin",
}

// LocateBinary resolves the absolute path of the daemon binary. It tries
// PATH resolution first, then the common system install directories, then
// the Go toolchain's binary directory. Callers must not attempt
// registration without a resolved path.
func LocateBinary() (string, error) {
	if path, err := exec.LookPath(binaryName); err == nil {
		if abs, err := filepath.Abs(path); err == nil {
			return abs, nil
		}
		return path, nil
	}

	for _, dir := range commonInstallDirs {
		candidate := filepath.Join(dir, binaryName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if path, ok := toolchainBinary(); ok {
		return path, nil
	}

	return "", ErrBinaryNotFound
}

// toolchainBinary checks the directory `go install` writes binaries to
func toolchainBinary() (string, bool) {
	var binDir string
	if gobin := os.Getenv("GOBIN"); gobin != "" {
		binDir = gobin
	} else if gopath := os.Getenv("GOPATH"); gopath != "" {
		binDir = filepath.Join(gopath, "bin")
	} else if home, err := os.UserHomeDir(); err == nil {
		binDir = filepath.Join(home, "go", "bin")
	} else {
		return "", false
	}

	candidate := filepath.Join(binDir, binaryName)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, true
	}
	return "", false
}
