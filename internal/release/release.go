// Package release queries the GitHub releases API for the latest release
// and selects the asset matching the host platform.
//
// Selection runs in two passes: an exact-name match over the ordered
// candidate list, then a ranked fallback over assets sharing the target
// prefix. Signing artifacts are never selected.
package release

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/codexget/codexget/internal/asset"
)

// Asset is one downloadable file attached to a release.
type Asset struct {
	Name string
	URL  string
	Size int64
}

// Release is the latest-release metadata, fetched once and read-only
// afterward.
type Release struct {
	Tag    string
	Assets []Asset
}

// Resolved is the single selected asset for this run.
type Resolved struct {
	// Tag is the release tag as published, e.g. "v1.2.3".
	Tag string

	// Version is the normalized semantic version of Tag, empty when the
	// tag is not semver.
	Version string

	Name string
	URL  string
	Size int64
}

// Select picks the asset for the run. Candidates are tried for an exact
// name match in order, first hit winning. Failing that, assets whose name
// starts with prefix (and are not signatures) compete on extension rank,
// ties going to the shorter name. No match at all yields NotFoundError.
func Select(repo string, rel *Release, candidates []string, prefix string) (*Resolved, error) {
	byName := make(map[string]Asset, len(rel.Assets))
	for _, a := range rel.Assets {
		byName[a.Name] = a
	}

	for _, want := range candidates {
		if a, ok := byName[want]; ok {
			return resolved(rel, a), nil
		}
	}

	var best *Asset
	for i := range rel.Assets {
		a := rel.Assets[i]
		if !strings.HasPrefix(a.Name, prefix) || asset.IsSignature(a.Name) {
			continue
		}
		if best == nil || asset.Less(a.Name, best.Name) {
			best = &rel.Assets[i]
		}
	}
	if best != nil {
		return resolved(rel, *best), nil
	}

	return nil, notFound(repo, rel, prefix)
}

func resolved(rel *Release, a Asset) *Resolved {
	return &Resolved{
		Tag:     rel.Tag,
		Version: NormalizeTag(rel.Tag),
		Name:    a.Name,
		URL:     a.URL,
		Size:    a.Size,
	}
}

// notFound builds the AssetNotFound diagnostic: product-prefixed asset
// names, signatures excluded, capped at MaxHints.
func notFound(repo string, rel *Release, prefix string) *NotFoundError {
	var hints []string
	total := 0
	for _, a := range rel.Assets {
		if !strings.HasPrefix(a.Name, asset.Prefix+"-") || asset.IsSignature(a.Name) {
			continue
		}
		total++
		if len(hints) < MaxHints {
			hints = append(hints, a.Name)
		}
	}

	return &NotFoundError{
		Repo:   repo,
		Tag:    rel.Tag,
		Prefix: prefix,
		Hints:  hints,
		More:   total - len(hints),
	}
}

// NormalizeTag returns the canonical semantic version for a release tag,
// tolerating a leading "v". Returns "" for tags that are not semver.
func NormalizeTag(tag string) string {
	v, err := semver.NewVersion(strings.TrimPrefix(tag, "v"))
	if err != nil {
		return ""
	}
	return v.String()
}
