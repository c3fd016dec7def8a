// Package asset builds the preference-ordered release-asset candidate list
// for a target and ranks asset names by distribution-format preference.
package asset

import (
	"fmt"
	"slices"
	"strings"

	"github.com/codexget/codexget/internal/platform"
)

const (
	// Prefix is the product filename prefix carried by every release
	// asset and by the installed binary.
	Prefix = "codex"

	// SignatureMarker identifies supplementary signing artifacts, which
	// are never selectable as the binary.
	SignatureMarker = "sigstore"
)

// Requestable format sets per OS branch.
var (
	windowsFormats = []string{"zip", "tar.gz", "zst"}
	unixFormats    = []string{"tar.gz", "zst", "dmg", "raw"}
)

// InvalidFormatError reports a requested format outside the OS's
// supported set.
type InvalidFormatError struct {
	Format    string
	OS        string
	Supported []string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid format %q for %s (supported: %s)",
		e.Format, e.OS, strings.Join(e.Supported, ", "))
}

// DefaultFormat returns the format assumed when none is requested:
// zip on windows, tar.gz elsewhere.
func DefaultFormat(os string) string {
	if os == "windows" {
		return "zip"
	}
	return "tar.gz"
}

// TargetPrefix returns the filename prefix shared by every asset built
// for the target: "codex-<triple>".
func TargetPrefix(t platform.Target) string {
	return Prefix + "-" + t.Triple()
}

// RawName returns the expected bare-binary filename for the target,
// "codex-<triple>" plus ".exe" on windows.
func RawName(t platform.Target) string {
	return TargetPrefix(t) + t.ExeSuffix()
}

// Name returns the asset filename for the target in the given format.
// The "raw" format means the bare binary.
func Name(t platform.Target, format string) string {
	if format == "raw" {
		return RawName(t)
	}
	return TargetPrefix(t) + "." + format
}

// IsSignature reports whether an asset name is a signing artifact.
func IsSignature(name string) bool {
	return strings.Contains(name, SignatureMarker)
}

// Candidates returns the ordered, de-duplicated candidate filenames for
// the target: the requested format first (the OS default when requested
// is empty), then the fixed fallback chain tar.gz, zst, dmg (zip on
// windows), raw. A requested format outside the OS's supported set fails
// with InvalidFormatError.
func Candidates(t platform.Target, requested string) ([]string, error) {
	format := requested
	if format == "" {
		format = DefaultFormat(t.OS)
	}

	supported := unixFormats
	imageFormat := "dmg"
	if t.OS == "windows" {
		supported = windowsFormats
		imageFormat = "zip"
	}
	if !slices.Contains(supported, format) {
		return nil, &InvalidFormatError{Format: format, OS: t.OS, Supported: supported}
	}

	names := []string{Name(t, format)}
	for _, f := range []string{"tar.gz", "zst", imageFormat, "raw"} {
		names = append(names, Name(t, f))
	}

	return dedupe(names), nil
}

// dedupe removes duplicate names preserving first-seen order.
func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
