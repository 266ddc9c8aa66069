// Package version exposes the build version reported by
// "prguard version".
package version

import "runtime/debug"

// Version is the build version. Set via -ldflags for releases,
// otherwise derived from VCS info embedded in the binary.
var Version = "dev"

func init() {
	// If Version was set via ldflags, use it
	if Version != "dev" {
		return
	}
	Version = versionFromVCS()
}

func versionFromVCS() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}

	var revision string
	var modified bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}

	if revision == "" {
		return "dev"
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if modified {
		revision += "-dirty"
	}
	return revision
}
