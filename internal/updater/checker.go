// Package updater checks the release registry for newer versions and
// drives the package manager that installed the running binary.
package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/magpie-dev/magpied/internal/logger"
)

// Status is the outcome of a version check
type Status int

const (
	// UpToDate means the running version is the latest published one
	UpToDate Status = iota

	// UpdateAvailable means a newer version is published
	UpdateAvailable

	// CheckFailed means the check could not complete; advisory only,
	// never a hard error
	CheckFailed
)

// CheckResult is the ephemeral result of one version check
type CheckResult struct {
	Status  Status
	Latest  string
	Current string
	Reason  string
}

// releaseResponse mirrors the registry's JSON payload
type releaseResponse struct {
	Release struct {
		MaxVersion string `json:"max_version"`
	} `json:"release"`
}

// Checker queries the release registry for the latest published version
type Checker struct {
	endpoint       string
	currentVersion string
	httpClient     *http.Client
	logger         *logger.Logger
}

// NewChecker creates a checker with a bounded request timeout
func NewChecker(endpoint, currentVersion string, timeout time.Duration) *Checker {
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &Checker{
		endpoint:       endpoint,
		currentVersion: currentVersion,
		httpClient:     &http.Client{Timeout: timeout},
		logger:         logger.GetLogger().WithComponent("updater"),
	}
}

// Check performs a single bounded version check. Transport, HTTP-status and
// parse failures all collapse to CheckFailed so update checking never
// aborts the caller.
func (c *Checker) Check(ctx context.Context) CheckResult {
	failed := func(reason string) CheckResult {
		c.logger.Debug().Str("reason", reason).Msg("version check failed")
		return CheckResult{Status: CheckFailed, Current: c.currentVersion, Reason: reason}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return failed(fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("User-Agent", "magpied/"+c.currentVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return failed(fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return failed(fmt.Sprintf("release endpoint returned status %d", resp.StatusCode))
	}

	var release releaseResponse
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return failed(fmt.Sprintf("failed to parse response: %v", err))
	}

	latest := release.Release.MaxVersion
	if latest == "" {
		return failed("release response missing max_version")
	}

	if isNewer(latest, c.currentVersion) {
		c.logger.Info().
			Str("current", c.currentVersion).
			Str("latest", latest).
			Msg("update available")
		return CheckResult{Status: UpdateAvailable, Latest: latest, Current: c.currentVersion}
	}

	return CheckResult{Status: UpToDate, Latest: latest, Current: c.currentVersion}
}

// isNewer reports whether latest is strictly newer than current. Anything
// from the first '-' onward is discarded in both strings, the remainder is
// split on '.' into up to three numeric components (missing components are
// zero, non-numeric components are dropped) and compared component-wise.
func isNewer(latest, current string) bool {
	parse := func(v string) []int {
		base, _, _ := strings.Cut(v, "-")
		var parts []int
		for _, s := range strings.Split(base, ".") {
			if n, err := strconv.Atoi(s); err == nil {
				parts = append(parts, n)
			}
		}
		return parts
	}

	at := func(parts []int, i int) int {
		if i < len(parts) {
			return parts[i]
		}
		return 0
	}

	latestParts := parse(latest)
	currentParts := parse(current)

	for i := 0; i < 3; i++ {
		l, c := at(latestParts, i), at(currentParts, i)
		if l > c {
			return true
		}
		if l < c {
			return false
		}
	}
	return false
}

// IsPrerelease reports whether a published version string carries a
// pre-release suffix, e.g. "1.4.0-rc.1"
func IsPrerelease(version string) bool {
	parsed, err := semver.NewVersion(strings.TrimPrefix(version, "v"))
	if err != nil {
		return false
	}
	return parsed.Prerelease() != ""
}
