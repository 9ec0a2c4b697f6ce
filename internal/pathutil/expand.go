// Package pathutil provides path expansion shared by the config layer and
// the service descriptors.
package pathutil

import (
	"os"
	"regexp"
	"strings"
	"sync"
)

// envPattern matches $VAR and ${VAR} references. Compiled on first use and
// shared process-wide; it is purely functional state with no teardown.
var envPattern = sync.OnceValue(func() *regexp.Regexp {
	return regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)
})

// Expand expands a leading ~ and any $VAR or ${VAR} references in path.
// References to unset variables are left untouched.
func Expand(path string) string {
	expanded := path

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			expanded = home + path[1:]
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			expanded = home
		}
	}

	return envPattern().ReplaceAllStringFunc(expanded, func(match string) string {
		groups := envPattern().FindStringSubmatch(match)
		name := groups[1]
		if name == "" {
			name = groups[2]
		}
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return match
	})
}
