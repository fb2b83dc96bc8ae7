// Package version records build metadata injected at link time.
package version

var (
	// Version is the release version, injected during build.
	Version = "dev"
	// Commit is the git revision, injected during build.
	Commit = "none"
	// Date is the build timestamp, injected during build.
	Date = "unknown"
)
