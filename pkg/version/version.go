// Package version reports the server build version to MCP clients.
package version

import "runtime/debug"

var version = "dev"

// Version returns the module build version when built from a tagged module,
// falling back to the value set via -ldflags or Set.
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Sum != "" {
		return info.Main.Version
	}
	return version
}

// Set assigns the exported version when ldflags are not provided (e.g. local dev).
func Set(v string) {
	if v != "" {
		version = v
	}
}
