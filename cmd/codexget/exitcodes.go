package main

import (
	"errors"
	"os"

	"github.com/codexget/codexget/internal/asset"
	"github.com/codexget/codexget/internal/extract"
	"github.com/codexget/codexget/internal/fetch"
	"github.com/codexget/codexget/internal/pkgmgr"
	"github.com/codexget/codexget/internal/platform"
	"github.com/codexget/codexget/internal/release"
)

// Exit codes per failure class so scripts can tell failure modes apart.
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0

	// ExitGeneral indicates an error outside the classes below
	ExitGeneral = 1

	// ExitUnsupportedPlatform indicates no release target exists for this host
	ExitUnsupportedPlatform = 2

	// ExitInvalidFormat indicates the requested asset format is not valid here
	ExitInvalidFormat = 3

	// ExitAPIError indicates the release API call failed
	ExitAPIError = 4

	// ExitAssetNotFound indicates the release has no matching asset
	ExitAssetNotFound = 5

	// ExitDownloadError indicates the asset download failed
	ExitDownloadError = 6

	// ExitExtractionError indicates the archive could not be unpacked
	ExitExtractionError = 7

	// ExitMissingTool indicates a required host tool is absent
	ExitMissingTool = 8
)

// exitCode maps an error chain to its documented exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		unsupported *platform.UnsupportedError
		invalid     *asset.InvalidFormatError
		apiErr      *release.APIError
		notFound    *release.NotFoundError
		dlErr       *fetch.DownloadError
		exErr       *extract.Error
		missing     *pkgmgr.MissingToolError
	)
	switch {
	case errors.As(err, &unsupported):
		return ExitUnsupportedPlatform
	case errors.As(err, &invalid):
		return ExitInvalidFormat
	case errors.As(err, &notFound):
		return ExitAssetNotFound
	case errors.As(err, &apiErr):
		return ExitAPIError
	case errors.As(err, &dlErr):
		return ExitDownloadError
	case errors.As(err, &exErr):
		return ExitExtractionError
	case errors.As(err, &missing):
		return ExitMissingTool
	}
	return ExitGeneral
}

func exitWithCode(code int) {
	os.Exit(code)
}
