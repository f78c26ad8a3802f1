// Package buildinfo carries the version stamped into release binaries.
//
// Release builds override these through the linker:
//
//	go build -ldflags "\
//	  -X github.com/threatmap/threatmap/pkg/buildinfo.Version=v1.0.0 \
//	  -X github.com/threatmap/threatmap/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/threatmap/threatmap/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Unstamped builds report "dev".
package buildinfo

import "fmt"

// Set at link time; the defaults identify a local development build.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Template renders the cobra version output, shown by `threatmap --version`.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
