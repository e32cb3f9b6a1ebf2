// Package version exposes build version information.
package version

// Version is the service current released version.
// This value can be overridden at build time using ldflags:
//
//	go build -ldflags "-X github.com/smartduck/wabot/internal/version.Version=v0.2.0"
var Version = "0.1.0"

// DevVersion is the service current development version.
var DevVersion = Version

// GitCommit is the git commit hash at build time.
// Set via ldflags: -X github.com/smartduck/wabot/internal/version.GitCommit=$(git rev-parse HEAD)
var GitCommit = "unknown"

// GetCurrentVersion returns the version string for the given run mode.
func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return DevVersion
	}
	return Version
}
