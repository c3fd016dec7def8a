package install

import (
	"fmt"
	"io"
	"os"

	"github.com/codexget/codexget/internal/log"
)

// Place moves the executable at src to dest and marks it executable.
// Rename is tried first; moves across filesystems fall back to
// copy-and-remove. A chmod failure is reported as a warning, not an
// error, so installs onto permission-limited filesystems still succeed.
func Place(src, dest string, logger log.Logger) error {
	if err := moveFile(src, dest); err != nil {
		return fmt.Errorf("placing executable at %s: %w", dest, err)
	}
	if err := os.Chmod(dest, 0o755); err != nil {
		logger.Warn("could not mark file executable", "path", dest, "error", err)
	}
	return nil
}

func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	if err := copyFile(src, dest); err != nil {
		return err
	}
	_ = os.Remove(src)
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
