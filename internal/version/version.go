// Package version holds build metadata for the todo binary.
package version

// Overridden with -ldflags "-X github.com/GoCodeAlone/todo/internal/version.Version=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// String renders the build metadata on one line.
func String() string {
	return Version + " (commit " + Commit + ", built " + BuildDate + ")"
}
