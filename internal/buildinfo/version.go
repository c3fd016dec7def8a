// Package buildinfo derives the binary's version from Go build metadata.
package buildinfo

import "runtime/debug"

// Version reports the running build's version: the module version for
// tagged installs, "dev-<revision>[-dirty]" when VCS metadata is
// embedded, "dev" for local builds without it, and "unknown" when build
// info is unreadable.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	return fromVCS(info.Settings)
}

func fromVCS(settings []debug.BuildSetting) string {
	revision := ""
	dirty := false
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return "dev"
	}
	// Git short-hash length.
	if len(revision) > 12 {
		revision = revision[:12]
	}
	if dirty {
		return "dev-" + revision + "-dirty"
	}
	return "dev-" + revision
}
