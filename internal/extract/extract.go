// Package extract turns a downloaded release asset into the product
// executable. Each asset format maps to exactly one handling strategy,
// chosen by filename suffix; archives are unpacked into a scratch
// directory and the executable located inside it.
package extract

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/codexget/codexget/internal/asset"
	"github.com/codexget/codexget/internal/platform"
)

// Kind identifies the handling strategy for an asset.
type Kind int

const (
	// KindPassthrough leaves the asset untouched (disk images).
	KindPassthrough Kind = iota
	// KindTarGz unpacks a gzip-compressed tarball.
	KindTarGz
	// KindZip unpacks a zip archive.
	KindZip
	// KindZstd decompresses a single zstd stream to the executable.
	KindZstd
	// KindRaw copies the asset as-is; it already is the executable.
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindPassthrough:
		return "passthrough"
	case KindTarGz:
		return "tar.gz"
	case KindZip:
		return "zip"
	case KindZstd:
		return "zstd"
	case KindRaw:
		return "raw"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Plan describes how a named asset will be handled.
type Plan struct {
	// Kind is the handling strategy selected by filename suffix.
	Kind Kind
	// Asset is the asset filename the plan was built from.
	Asset string
	// Expected is the raw executable filename the archive should contain.
	Expected string
}

// Error reports a failed or empty extraction.
type Error struct {
	Archive string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed for %s: %s: %v", e.Archive, e.Message, e.Err)
	}
	return fmt.Sprintf("extraction failed for %s: %s", e.Archive, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// PlanFor selects the handling strategy for an asset name. Unrecognized
// suffixes are treated as raw executables, never rejected.
func PlanFor(assetName string, target platform.Target) Plan {
	p := Plan{Asset: assetName, Expected: asset.RawName(target)}
	switch name := strings.ToLower(assetName); {
	case strings.HasSuffix(name, ".dmg"):
		p.Kind = KindPassthrough
	case strings.HasSuffix(name, ".tar.gz"):
		p.Kind = KindTarGz
	case strings.HasSuffix(name, ".zip"):
		p.Kind = KindZip
	case strings.HasSuffix(name, ".zst"):
		p.Kind = KindZstd
	default:
		p.Kind = KindRaw
	}
	return p
}

// RequiredTools lists host executables the plan needs before it can run.
// All current strategies extract in-process, so the list is empty; the
// package-manager step consults it so future formats can declare needs.
func (p Plan) RequiredTools() []string { return nil }

// Run executes the plan. archivePath is the downloaded asset and workDir
// an existing scratch directory to unpack into. It returns the path of
// the located executable; for passthrough assets it returns archivePath
// unchanged.
func Run(p Plan, archivePath, workDir string) (string, error) {
	switch p.Kind {
	case KindPassthrough:
		return archivePath, nil
	case KindTarGz:
		if err := untarGz(archivePath, workDir); err != nil {
			return "", &Error{Archive: p.Asset, Message: "unpacking tar.gz", Err: err}
		}
	case KindZip:
		if err := unzip(archivePath, workDir); err != nil {
			return "", &Error{Archive: p.Asset, Message: "unpacking zip", Err: err}
		}
	case KindZstd:
		if err := decompressZstd(archivePath, filepath.Join(workDir, p.Expected)); err != nil {
			return "", &Error{Archive: p.Asset, Message: "decompressing zstd stream", Err: err}
		}
	case KindRaw:
		if err := copyFile(archivePath, filepath.Join(workDir, p.Expected)); err != nil {
			return "", &Error{Archive: p.Asset, Message: "copying raw executable", Err: err}
		}
	default:
		return "", &Error{Archive: p.Asset, Message: fmt.Sprintf("unknown extraction kind %v", p.Kind)}
	}

	found, err := locate(workDir, p.Expected)
	if err != nil {
		return "", &Error{Archive: p.Asset, Message: "locating executable", Err: err}
	}
	if found == "" {
		return "", &Error{Archive: p.Asset, Message: "no executable found after extraction"}
	}
	return found, nil
}

// locate finds the extracted executable under workDir. The expected
// filename at the top level wins; otherwise the shortest-path regular
// file whose base name carries the product prefix and is not a
// signature artifact is chosen.
func locate(workDir, expected string) (string, error) {
	top := filepath.Join(workDir, expected)
	if fi, err := os.Stat(top); err == nil && fi.Mode().IsRegular() {
		return top, nil
	}

	var best string
	err := filepath.WalkDir(workDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		name := d.Name()
		if !strings.HasPrefix(name, asset.Prefix) || asset.IsSignature(name) {
			return nil
		}
		if best == "" || len(path) < len(best) {
			best = path
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return best, nil
}
