// Package version reports the build version for health and bootstrap logs.
package version

import "runtime/debug"

var version = "dev"

// Version returns the module version from build info when available,
// otherwise the value set at link time or via Set.
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Sum != "" {
		return info.Main.Version
	}
	return version
}

// Set overrides the fallback version for local development builds.
func Set(v string) {
	if v != "" {
		version = v
	}
}
