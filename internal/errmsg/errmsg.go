// Package errmsg renders errors for the terminal: a one-line headline
// followed by possible causes and actionable suggestions tailored to the
// failure class.
package errmsg

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/codexget/codexget/internal/asset"
	"github.com/codexget/codexget/internal/config"
	"github.com/codexget/codexget/internal/extract"
	"github.com/codexget/codexget/internal/fetch"
	"github.com/codexget/codexget/internal/pkgmgr"
	"github.com/codexget/codexget/internal/platform"
	"github.com/codexget/codexget/internal/release"
)

// Format returns a formatted message for err. Typed errors get tailored
// causes and suggestions; anything unrecognized renders as its plain
// Error() text.
func Format(err error) string {
	if err == nil {
		return ""
	}

	var unsupported *platform.UnsupportedError
	if errors.As(err, &unsupported) {
		return formatUnsupported(unsupported)
	}

	var invalid *asset.InvalidFormatError
	if errors.As(err, &invalid) {
		return formatInvalidFormat(invalid)
	}

	var notFound *release.NotFoundError
	if errors.As(err, &notFound) {
		return formatNotFound(notFound)
	}

	var apiErr *release.APIError
	if errors.As(err, &apiErr) {
		return formatAPIError(apiErr)
	}

	var dlErr *fetch.DownloadError
	if errors.As(err, &dlErr) {
		return formatDownload(dlErr)
	}

	var exErr *extract.Error
	if errors.As(err, &exErr) {
		return formatExtraction(exErr)
	}

	var missing *pkgmgr.MissingToolError
	if errors.As(err, &missing) {
		return formatMissingTool(missing)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return formatNetwork(netErr)
	}

	return err.Error()
}

func formatUnsupported(err *platform.UnsupportedError) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - This host is not one of the published release targets\n")
	if err.Field == "libc" {
		sb.WriteString("  - " + config.EnvLibc + " is set to an unknown value\n")
	}

	sb.WriteString("\nSuggestions:\n")
	if err.Field == "libc" {
		sb.WriteString("  - Set " + config.EnvLibc + " to musl or gnu\n")
	} else {
		sb.WriteString("  - Releases cover Linux and Windows on x86_64 and macOS on aarch64\n")
	}
	return sb.String()
}

func formatInvalidFormat(err *asset.InvalidFormatError) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nSuggestions:\n")
	fmt.Fprintf(&sb, "  - Set %s to one of: %s\n", config.EnvFormat, strings.Join(err.Supported, ", "))
	fmt.Fprintf(&sb, "  - Unset %s to use the default for this platform\n", config.EnvFormat)
	return sb.String()
}

func formatNotFound(err *release.NotFoundError) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	if len(err.Hints) > 0 {
		sb.WriteString("\nAssets in this release:\n")
		for _, name := range err.Hints {
			sb.WriteString("  - " + name + "\n")
		}
		if err.More > 0 {
			fmt.Fprintf(&sb, "  ... and %d more\n", err.More)
		}
	}

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - The latest release has no build for this platform\n")
	sb.WriteString("  - The repository changed its asset naming\n")

	sb.WriteString("\nSuggestions:\n")
	fmt.Fprintf(&sb, "  - Check %s points at the right repository\n", config.EnvRepo)
	fmt.Fprintf(&sb, "  - Set %s to a format the release provides\n", config.EnvFormat)
	return sb.String()
}

func formatAPIError(err *release.APIError) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	switch err.Kind {
	case release.KindRateLimit:
		sb.WriteString("  - Too many requests to the GitHub API\n")
		sb.WriteString("  - Unauthenticated requests have lower limits\n")
	case release.KindTimeout:
		sb.WriteString("  - Request timed out\n")
		sb.WriteString("  - Slow or unstable network connection\n")
	case release.KindNotFound:
		sb.WriteString("  - The repository does not exist or is private\n")
		sb.WriteString("  - The repository has no published releases\n")
	case release.KindValidation:
		sb.WriteString("  - The repository identifier is malformed\n")
	default:
		sb.WriteString("  - Network connectivity issue\n")
		sb.WriteString("  - Service temporarily unavailable\n")
	}

	sb.WriteString("\nSuggestions:\n")
	if s := err.Suggestion(); s != "" {
		sb.WriteString("  - " + s + "\n")
	}
	if err.Kind != release.KindValidation && err.Kind != release.KindNotFound {
		sb.WriteString("  - Try again in a few minutes\n")
	}
	return sb.String()
}

func formatDownload(err *fetch.DownloadError) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - Network connectivity issue\n")
	sb.WriteString("  - The release asset moved or was deleted\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Check your internet connection\n")
	sb.WriteString("  - Try again in a few minutes\n")
	return sb.String()
}

func formatExtraction(err *extract.Error) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - The download is truncated or corrupted\n")
	sb.WriteString("  - The archive layout changed upstream\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Try again to rule out a bad download\n")
	fmt.Fprintf(&sb, "  - Set %s=1 and inspect the archive by hand\n", config.EnvKeepArchive)
	return sb.String()
}

func formatMissingTool(err *pkgmgr.MissingToolError) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nSuggestions:\n")
	if err.Command != "" {
		sb.WriteString("  - Run: " + err.Command + "\n")
	} else {
		fmt.Fprintf(&sb, "  - Install %s with your system package manager\n", err.Tool)
	}
	return sb.String()
}

func formatNetwork(err net.Error) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	if err.Timeout() {
		sb.WriteString("  - Request timed out\n")
		sb.WriteString("  - Slow or unstable network connection\n")
	} else {
		sb.WriteString("  - Network connectivity issue\n")
		sb.WriteString("  - DNS resolution failure\n")
	}

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Check your internet connection\n")
	sb.WriteString("  - Try again in a few minutes\n")
	return sb.String()
}
