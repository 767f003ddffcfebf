// Package version reports the tmux-rotate build.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version and Commit are set at build time with
// -ldflags "-X .../internal/version.Version=v1.2.0 -X .../internal/version.Commit=abc1234".
var (
	Version = "development"
	Commit  = "unknown"
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// String returns the version, with the commit appended when known. A
// binary built with `go install` reports its module version and VCS
// revision when no ldflags were given.
func String() string {
	version, commit := Version, Commit
	if info, ok := readBuildInfo(); ok {
		if version == "development" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
		if commit == "unknown" {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" && len(s.Value) >= 7 {
					commit = s.Value[:7]
				}
			}
		}
	}
	if commit != "unknown" {
		return version + "+" + commit
	}
	return version
}

// Detailed returns the version line printed by the version command.
func Detailed() string {
	return fmt.Sprintf("tmux-rotate %s (%s %s/%s)", String(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
