// Package version exposes build metadata injected with -ldflags.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const unknown = "unknown"

// Set at build time, e.g. -ldflags "-X github.com/projecteru2/docup/version.VERSION=v0.1.0".
var (
	VERSION  = "dev"
	REVISION = unknown
	BUILTAT  = unknown
)

// Revision returns the injected git revision, falling back to the VCS
// stamp of the binary.
func Revision() string {
	if REVISION != unknown {
		return REVISION
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return s.Value
			}
		}
	}
	return unknown
}

// String renders the multi-line version banner printed by `docup version`.
func String() string {
	return fmt.Sprintf("Version:        %s\nGit hash:       %s\nBuilt:          %s\nGolang version: %s\nOS/Arch:        %s/%s\n",
		VERSION, Revision(), BUILTAT, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
