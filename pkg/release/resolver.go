package release

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/gamecube-tools/swissinstall/internal/constants"
	internalUtils "github.com/gamecube-tools/swissinstall/internal/utils"
	"github.com/gamecube-tools/swissinstall/pkg/profile"
)

// Selection says which release to install. The zero value means latest.
type Selection struct {
	Tag      string // explicit pin, empty for implicit selection
	Previous bool   // previous official release instead of the latest
}

func Latest() Selection        { return Selection{} }
func Previous() Selection      { return Selection{Previous: true} }
func Pin(tag string) Selection { return Selection{Tag: tag} }

func (s Selection) String() string {
	switch {
	case s.Tag != "":
		return "tag " + s.Tag
	case s.Previous:
		return "previous release"
	default:
		return "latest release"
	}
}

var buildRe = regexp.MustCompile(`^v(\d+\.\d+)r(\d+)$`)

// Blacklisted reports whether a tag falls in the closed range of builds
// known to brick GCLoader drives. Comparison is on the encoded build
// number, not semver.
func Blacklisted(tag string) bool {
	m := buildRe.FindStringSubmatch(tag)
	if m == nil {
		return false
	}
	if m[1] != constants.GcloaderBadSeries {
		return false
	}
	build, err := strconv.Atoi(m[2])
	if err != nil {
		return false
	}
	return build >= constants.GcloaderBadFloor && build <= constants.GcloaderBadCeiling
}

// Resolve returns exactly one release for the selection or fails, never
// zero or several. Drafts and prereleases are filtered for implicit
// selections, an explicit pin may target any tag in the catalog.
//
// The blacklist is asymmetric on purpose: implicit selection for gcloader
// silently advances past blacklisted builds so automated runs can never
// pick one, while a pin to a blacklisted tag fails loudly so the user
// learns why instead of getting a substitute.
func Resolve(c Catalog, sel Selection, device profile.Device) (Release, error) {
	sorted := make(Catalog, len(c))
	copy(sorted, c)
	sorted.Sort()

	if sel.Tag != "" {
		for _, r := range sorted {
			if r.Tag != sel.Tag {
				continue
			}
			if device == profile.GCLoader && Blacklisted(r.Tag) {
				return Release{}, fmt.Errorf("tag %s bricks gcloader drives: %w", r.Tag, constants.ErrBlacklisted)
			}
			return r, nil
		}
		return Release{}, fmt.Errorf("tag %s: %w", sel.Tag, constants.ErrNotFound)
	}

	want := 0
	if sel.Previous {
		want = 1
	}
	seen := 0
	for _, r := range sorted {
		if r.Draft || r.Prerelease {
			continue
		}
		if device == profile.GCLoader && Blacklisted(r.Tag) {
			internalUtils.Log.Warn().Str("tag", r.Tag).Msg("Skipping release blacklisted for gcloader")
			continue
		}
		if seen == want {
			return r, nil
		}
		seen++
	}

	if sel.Previous {
		return Release{}, fmt.Errorf("fewer than two eligible releases: %w", constants.ErrNotFound)
	}
	return Release{}, fmt.Errorf("no eligible release: %w", constants.ErrNotFound)
}
