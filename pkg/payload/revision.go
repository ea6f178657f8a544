package payload

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gamecube-tools/swissinstall/internal/constants"
	"github.com/twpayne/go-vfs/v4"
)

var (
	tagRevRe = regexp.MustCompile(`r(\d+)`)
	dirRevRe = regexp.MustCompile(`swiss_r(\d+)`)
)

// DetectRevision finds the swiss_r<rev> payload directory at the top of
// the extracted tree and its numeric revision. Trees without one fall
// back to the r<rev> encoded in the release tag.
func DetectRevision(fsys vfs.FS, tree, tag string) (rev, dirName string, err error) {
	entries, err := fsys.ReadDir(tree)
	if err == nil {
		for _, e := range entries {
			if e.IsDir() && strings.HasPrefix(strings.ToLower(e.Name()), "swiss_r") {
				dirName = e.Name()
				break
			}
		}
	}

	if dirName != "" {
		if m := dirRevRe.FindStringSubmatch(strings.ToLower(dirName)); m != nil {
			return m[1], dirName, nil
		}
	}

	if m := tagRevRe.FindStringSubmatch(tag); m != nil {
		rev = m[1]
		return rev, "swiss_r" + rev, nil
	}

	return "", "", fmt.Errorf("swiss revision not derivable from tree or tag %q: %w", tag, constants.ErrMissingPayload)
}
