package updater

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/magpie-dev/magpied/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	logger.Init(logger.DefaultConfig())
	os.Exit(m.Run())
}

func TestIsNewer(t *testing.T) {
	tests := []struct {
		latest  string
		current string
		want    bool
	}{
		{"1.2.3", "1.2.0", true},
		{"1.2.0-beta", "1.2.0", false},
		{"2.0.0", "1.9.9", true},
		{"1.0.0", "1.0.1", false},
		{"1.0", "1.0.0", false},
		{"1.0.0", "1.0.0", false},
		{"1.0.1", "1.0.0-rc.2", true},
		{"0.10.0", "0.9.9", true},
		{"1.1", "1.0.5", true},
	}

	for _, tt := range tests {
		t.Run(tt.latest+" vs "+tt.current, func(t *testing.T) {
			assert.Equal(t, tt.want, isNewer(tt.latest, tt.current))
		})
	}
}

func TestIsPrerelease(t *testing.T) {
	assert.True(t, IsPrerelease("1.4.0-rc.1"))
	assert.True(t, IsPrerelease("v2.0.0-beta"))
	assert.False(t, IsPrerelease("1.4.0"))
	assert.False(t, IsPrerelease("not-a-version"))
}

func newReleaseServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestCheckUpdateAvailable(t *testing.T) {
	var gotAgent string
	server := newReleaseServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte(`{"release": {"max_version": "1.1.0"}}`))
	})

	checker := NewChecker(server.URL, "1.0.0", 5*time.Second)
	result := checker.Check(context.Background())

	assert.Equal(t, UpdateAvailable, result.Status)
	assert.Equal(t, "1.1.0", result.Latest)
	assert.Equal(t, "1.0.0", result.Current)
	assert.Equal(t, "magpied/1.0.0", gotAgent)
}

func TestCheckUpToDate(t *testing.T) {
	server := newReleaseServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"release": {"max_version": "1.0.0"}}`))
	})

	checker := NewChecker(server.URL, "1.0.0", 5*time.Second)
	result := checker.Check(context.Background())

	assert.Equal(t, UpToDate, result.Status)
	assert.Equal(t, "1.0.0", result.Latest)
}

func TestCheckFailedOnHTTPStatus(t *testing.T) {
	server := newReleaseServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	checker := NewChecker(server.URL, "1.0.0", 5*time.Second)
	result := checker.Check(context.Background())

	assert.Equal(t, CheckFailed, result.Status)
	assert.Contains(t, result.Reason, "status 500")
}

func TestCheckFailedOnMalformedJSON(t *testing.T) {
	server := newReleaseServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"release": `))
	})

	checker := NewChecker(server.URL, "1.0.0", 5*time.Second)
	result := checker.Check(context.Background())

	assert.Equal(t, CheckFailed, result.Status)
	assert.Contains(t, result.Reason, "parse")
}

func TestCheckFailedOnMissingVersionField(t *testing.T) {
	server := newReleaseServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"release": {}}`))
	})

	checker := NewChecker(server.URL, "1.0.0", 5*time.Second)
	result := checker.Check(context.Background())

	assert.Equal(t, CheckFailed, result.Status)
	assert.Contains(t, result.Reason, "max_version")
}

func TestCheckFailedOnUnreachableEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	checker := NewChecker(url, "1.0.0", time.Second)
	result := checker.Check(context.Background())

	assert.Equal(t, CheckFailed, result.Status)
	assert.NotEmpty(t, result.Reason)
}

func TestCheckFailedOnTimeout(t *testing.T) {
	server := newReleaseServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(`{"release": {"max_version": "1.1.0"}}`))
	})

	checker := NewChecker(server.URL, "1.0.0", 50*time.Millisecond)

	start := time.Now()
	result := checker.Check(context.Background())

	require.Equal(t, CheckFailed, result.Status)
	assert.Less(t, time.Since(start), 450*time.Millisecond, "check must honor its timeout, not hang")
}
