package release

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gamecube-tools/swissinstall/internal/constants"
)

// Release is one published firmware build. Immutable once fetched. Tags
// are opaque strings, compared only for equality and blacklist membership.
type Release struct {
	Tag         string
	PublishedAt time.Time
	Draft       bool
	Prerelease  bool
	Assets      []AssetRef
}

// AssetRef points at one downloadable file of a release.
type AssetRef struct {
	Name        string
	DownloadURL string
}

// Catalog is an ordered list of candidate releases, newest first.
type Catalog []Release

// Sort orders the catalog by publish time, newest first. Stable so equal
// timestamps keep the order the source listed them in.
func (c Catalog) Sort() {
	sort.SliceStable(c, func(i, j int) bool {
		return c[i].PublishedAt.After(c[j].PublishedAt)
	})
}

// Archive picks the installable archive asset: .tar.xz preferred, .7z as
// fallback, nothing else is accepted.
func (r Release) Archive() (AssetRef, error) {
	for _, a := range r.Assets {
		if strings.HasSuffix(strings.ToLower(a.Name), ".tar.xz") {
			return a, nil
		}
	}
	for _, a := range r.Assets {
		if strings.HasSuffix(strings.ToLower(a.Name), ".7z") {
			return a, nil
		}
	}
	return AssetRef{}, fmt.Errorf("release %s has no .tar.xz or .7z asset: %w", r.Tag, constants.ErrUnsupportedArchive)
}

// FindAsset picks an asset by exact name first, then by suffix, both
// case-insensitive. Upstream packers are not consistent about casing.
func (r Release) FindAsset(name, suffix string) (AssetRef, error) {
	for _, a := range r.Assets {
		if strings.EqualFold(a.Name, name) {
			return a, nil
		}
	}
	for _, a := range r.Assets {
		if strings.HasSuffix(strings.ToLower(a.Name), strings.ToLower(suffix)) {
			return a, nil
		}
	}
	return AssetRef{}, fmt.Errorf("asset %s (or *%s) on %s: %w", name, suffix, r.Tag, constants.ErrNotFound)
}
