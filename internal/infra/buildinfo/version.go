// Package buildinfo provides build-time version information.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/cachemesh-go/internal/infra/buildinfo.version=v1.0.0"
package buildinfo

// Build-time variables (set via ldflags).
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Version returns the semantic version.
func Version() string { return version }

// Commit returns the git commit hash.
func Commit() string { return commit }

// String returns a formatted version string.
func String() string {
	return version + " (" + commit + ") built at " + buildTime
}
