package pkgmgr

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"strings"
)

// debianLike lists os-release identifiers of distros that use apt.
var debianLike = map[string]bool{
	"debian":     true,
	"ubuntu":     true,
	"linuxmint":  true,
	"pop":        true,
	"elementary": true,
	"zorin":      true,
}

// isDebianFamily parses the os-release file at path and reports whether
// the distro belongs to the apt ecosystem, checking ID first and the
// ID_LIKE chain second. A missing file means an unknown distro, not an
// error.
func isDebianFamily(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer file.Close()

	var id string
	var idLike []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		value = strings.Trim(value, `"'`)
		switch key {
		case "ID":
			id = value
		case "ID_LIKE":
			idLike = strings.Fields(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return false, err
	}

	if debianLike[id] {
		return true, nil
	}
	for _, like := range idLike {
		if debianLike[like] {
			return true, nil
		}
	}
	return false, nil
}
