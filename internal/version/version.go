// Package version provides information about the build version
package version

import (
	"runtime/debug"
)

// Version contains the semantic version of the current build.
// The value is set at build time
var Version = "" //nolint:gochecknoglobals

// String returns the version of the current build. If no version was set
// at build time, it falls back to the version recorded by the go toolchain
func String() string {
	if Version != "" {
		return Version
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok || bi.Main.Version == "" {
		return "(devel)"
	}

	return bi.Main.Version
}
