// Package platform normalizes host OS and architecture reports into the
// target triple used to name codex release assets.
//
// Detection is a pure mapping over strings so the full table is testable;
// Host applies it to the running process via the runtime package.
package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// ValidLibcs lists the recognized Linux C library variants.
var ValidLibcs = []string{"musl", "gnu"}

// Target identifies the build variant to install: normalized OS and
// architecture, plus the libc variant on Linux. Derived once per run and
// immutable afterward.
type Target struct {
	// OS is "linux", "darwin", or "windows".
	OS string

	// Arch is "x86_64" or "aarch64".
	Arch string

	// Libc is "musl" or "gnu" on Linux, empty elsewhere.
	Libc string
}

// Triple renders the Rust-style target triple embedded in release asset
// names, such as "x86_64-unknown-linux-musl" or "aarch64-apple-darwin".
func (t Target) Triple() string {
	switch t.OS {
	case "linux":
		return t.Arch + "-unknown-linux-" + t.Libc
	case "darwin":
		return t.Arch + "-apple-darwin"
	case "windows":
		return t.Arch + "-pc-windows-msvc"
	}
	return ""
}

// ExeSuffix returns ".exe" on windows and "" elsewhere.
func (t Target) ExeSuffix() string {
	if t.OS == "windows" {
		return ".exe"
	}
	return ""
}

func (t Target) String() string {
	return t.Triple()
}

// UnsupportedError reports a host outside the recognized platform set.
type UnsupportedError struct {
	// Field names what could not be mapped: "os", "arch", or "libc".
	Field string

	// Value is the raw string that failed to map.
	Value string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported %s: %q", e.Field, e.Value)
}

// Detect maps raw host-reported OS and architecture strings to a Target.
//
// Recognized OS names: "Linux", "Darwin", and the windows-like set
// ("Windows", "Windows_NT", and anything starting with CYGWIN, MINGW, or
// MSYS), matched case-insensitively. Recognized architectures: x86_64 or
// amd64, and aarch64 or arm64. libc selects the gnu or musl triple on
// Linux and is ignored elsewhere.
func Detect(rawOS, rawArch, libc string) (Target, error) {
	osName, ok := normalizeOS(rawOS)
	if !ok {
		return Target{}, &UnsupportedError{Field: "os", Value: rawOS}
	}

	arch, ok := normalizeArch(rawArch)
	if !ok {
		return Target{}, &UnsupportedError{Field: "arch", Value: rawArch}
	}

	t := Target{OS: osName, Arch: arch}
	if osName == "linux" {
		switch libc {
		case "musl", "gnu":
			t.Libc = libc
		default:
			return Target{}, &UnsupportedError{Field: "libc", Value: libc}
		}
	}

	return t, nil
}

// Host detects the running process's target using the Go runtime's OS and
// architecture identifiers.
func Host(libc string) (Target, error) {
	return Detect(runtime.GOOS, runtime.GOARCH, libc)
}

func normalizeOS(raw string) (string, bool) {
	switch lower := strings.ToLower(raw); {
	case lower == "linux":
		return "linux", true
	case lower == "darwin":
		return "darwin", true
	case lower == "windows", lower == "windows_nt":
		return "windows", true
	case strings.HasPrefix(lower, "cygwin"),
		strings.HasPrefix(lower, "mingw"),
		strings.HasPrefix(lower, "msys"):
		return "windows", true
	}
	return "", false
}

func normalizeArch(raw string) (string, bool) {
	switch strings.ToLower(raw) {
	case "x86_64", "amd64":
		return "x86_64", true
	case "aarch64", "arm64":
		return "aarch64", true
	}
	return "", false
}
