package extract

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// withinDir reports whether targetPath resolves inside basePath. Both
// paths are made absolute before comparing so relative traversal
// components cannot escape.
func withinDir(targetPath, basePath string) (bool, error) {
	absTarget, err := filepath.Abs(targetPath)
	if err != nil {
		return false, err
	}
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return false, err
	}
	if absTarget == absBase {
		return true, nil
	}
	return strings.HasPrefix(absTarget, absBase+string(filepath.Separator)), nil
}

// validateSymlink rejects symlink entries whose target would resolve
// outside destPath. Absolute targets are always rejected.
func validateSymlink(linkTarget, linkLocation, destPath string) error {
	if filepath.IsAbs(linkTarget) {
		return fmt.Errorf("symlink target is absolute: %s", linkTarget)
	}
	resolved := filepath.Join(filepath.Dir(linkLocation), linkTarget)
	ok, err := withinDir(resolved, destPath)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("symlink target escapes extraction directory: %s", linkTarget)
	}
	return nil
}

// atomicSymlink creates a symlink at linkPath, replacing any existing
// entry without a window where the path is missing.
func atomicSymlink(target, linkPath string) error {
	tmp := linkPath + ".tmp"
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Symlink(target, tmp); err != nil {
		return err
	}
	return os.Rename(tmp, linkPath)
}

// untarGz unpacks a gzip-compressed tarball into destPath, refusing
// entries that would land outside it.
func untarGz(archivePath, destPath string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("opening gzip stream: %w", err)
	}
	defer gz.Close()

	return untarReader(tar.NewReader(gz), destPath)
}

func untarReader(tr *tar.Reader, destPath string) error {
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}

		name := strings.TrimPrefix(header.Name, "./")
		if name == "" || name == "." {
			continue
		}
		target := filepath.Join(destPath, filepath.FromSlash(name))
		ok, err := withinDir(target, destPath)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("tar entry escapes extraction directory: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := validateSymlink(header.Linkname, target, destPath); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := atomicSymlink(header.Linkname, target); err != nil {
				return err
			}
		default:
			// Hard links, devices and other entry types are skipped.
		}
	}
}

// unzip unpacks a zip archive into destPath with the same containment
// guarantees as untarGz.
func unzip(archivePath, destPath string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening zip archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		name := strings.TrimPrefix(f.Name, "./")
		if name == "" || name == "." {
			continue
		}
		target := filepath.Join(destPath, filepath.FromSlash(name))
		ok, err := withinDir(target, destPath)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("zip entry escapes extraction directory: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := writeZipEntry(f, target); err != nil {
			return err
		}
	}
	return nil
}

func writeZipEntry(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// decompressZstd writes the single zstd stream in archivePath to
// destPath.
func decompressZstd(archivePath, destPath string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("opening zstd stream: %w", err)
	}
	defer zr.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, zr); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
