package asset

import "strings"

// Rank scores an asset name by its distribution format for the prefix
// fallback pass. Lower is preferred. The order is a fixed total order
// over file extensions:
//
//	tar.gz=0, zip=1, zst=2, dmg=3, anything else=4
func Rank(name string) int {
	switch {
	case strings.HasSuffix(name, ".tar.gz"):
		return 0
	case strings.HasSuffix(name, ".zip"):
		return 1
	case strings.HasSuffix(name, ".zst"):
		return 2
	case strings.HasSuffix(name, ".dmg"):
		return 3
	default:
		return 4
	}
}

// Less orders two asset names for selection: lower rank wins, ties go to
// the shorter filename.
func Less(a, b string) bool {
	ra, rb := Rank(a), Rank(b)
	if ra != rb {
		return ra < rb
	}
	return len(a) < len(b)
}
