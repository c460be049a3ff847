// Package version holds build metadata injected via -ldflags.
package version

// Set at build time.
var (
	Version = "dev"
	Commit  = "none"
)
