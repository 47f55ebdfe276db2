// Package build provides version and build information for commitsense.
// This package intentionally has no dependencies on other internal packages
// to avoid import cycles.
package build

import "fmt"

var (
	// Version information - set via ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// IsDevBuild returns true if running a development build (not a release).
func IsDevBuild() bool {
	return Version == "dev"
}

// Summary returns a one-line description of the running binary.
func Summary() string {
	return fmt.Sprintf("commitsense %s (commit %s, built %s)", Version, Commit, BuildDate)
}

// UserAgent is the User-Agent header sent to model providers.
func UserAgent() string {
	return "commitsense/" + Version
}
