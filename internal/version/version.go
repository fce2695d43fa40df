package version

import (
	"fmt"
	"runtime"
)

// Set with -ldflags "-X github.com/MrSnakeDoc/leasetrail/internal/version.Version=..."
var (
	Version   = "dev"             // ex: v0.1.0
	Commit    = "none"            // ex: abcd123
	BuildDate = "unknown"         // ex: 2025-08-11T18:42:00Z
	GoVersion = runtime.Version() // go version
)

// String is the one-line build description printed at startup.
func String() string {
	return fmt.Sprintf("leasetrail %s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
