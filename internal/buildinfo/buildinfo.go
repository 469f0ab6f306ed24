// Package buildinfo holds build-time version metadata injected via ldflags.
package buildinfo

var (
	// Version is the release version, e.g. "v1.4.2". "dev" for local builds.
	Version = "dev"

	// Commit is the short git commit hash the binary was built from.
	Commit = "none"

	// BuildDate is the UTC build timestamp.
	BuildDate = "unknown"
)
