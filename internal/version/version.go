// Package version holds vecgate build metadata injected via ldflags:
//
//	-X github.com/kailas-cloud/vecgate/internal/version.Version=v0.3.0
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the build metadata for the version command and startup log.
func String() string {
	return Version + " (" + Commit + ", " + Date + ")"
}
