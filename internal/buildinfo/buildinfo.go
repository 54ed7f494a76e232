// Package buildinfo holds build-time metadata injected via -ldflags.
package buildinfo

import "fmt"

// Inject via: -X github.com/garyellow/aisis-planner-go/internal/buildinfo.Version=...
var (
	Version   = ""
	Commit    = ""
	BuildDate = ""
)

// String renders the metadata for --version output and health responses.
func String() string {
	v := Version
	if v == "" {
		v = "dev"
	}
	if Commit == "" {
		return v
	}
	return fmt.Sprintf("%s (%s, %s)", v, Commit, BuildDate)
}
