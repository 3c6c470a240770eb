// Package version holds the jobcorr release stamp printed by `jobcorr version`.
//
// Release builds set the stamp through the linker:
//
//	go build -ldflags "\
//	  -X jobcorr/src/internal/version.Version=1.2.0 \
//	  -X jobcorr/src/internal/version.GitCommit=$(git rev-parse --short HEAD) \
//	  -X jobcorr/src/internal/version.BuildDate=$(date -u +%Y-%m-%d)" ./cmd/jobcorr
//
// Local builds keep the defaults below.
package version

import (
	"fmt"
	"runtime"
)

const program = "jobcorr"

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Stamp is the build identity of the running binary
type Stamp struct {
	Version   string
	GitCommit string
	BuildDate string
	GoVersion string
}

// Current returns the stamp linked into this binary
func Current() Stamp {
	return Stamp{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}

// Short is the one-line form, e.g. "jobcorr 0.1.0"
func (s Stamp) Short() string {
	return program + " " + s.Version
}

// Long adds commit, build date and toolchain to Short
func (s Stamp) Long() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, go: %s)",
		s.Short(), s.GitCommit, s.BuildDate, s.GoVersion)
}
