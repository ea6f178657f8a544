package plan

import (
	"path/filepath"

	"github.com/gamecube-tools/swissinstall/internal/constants"
	"github.com/gamecube-tools/swissinstall/pkg/op"
	"github.com/twpayne/go-vfs/v4"
)

// Gate blocks the plan for every destination that already exists on
// the volume when force is off. The apploader refresh pair and the
// stale swiss binary cleanup are maintenance and pass through, they
// would otherwise block every run after the first. Operations on a
// blocked path are dropped, the reason is kept for the report.
func Gate(fsys vfs.FS, sdRoot string, p *Plan, force bool) {
	if force {
		return
	}

	for _, o := range p.Operations {
		if maintenance(sdRoot, o) {
			continue
		}
		if op.Exists(fsys, o.Destination) {
			p.Block(volumePath(sdRoot, o.Destination))
		}
	}

	if !p.Blocked() {
		return
	}

	kept := p.Operations[:0]
	for _, o := range p.Operations {
		if !maintenance(sdRoot, o) && p.BlockedPath(volumePath(sdRoot, o.Destination)) {
			continue
		}
		kept = append(kept, o)
	}
	p.Operations = kept
}

func maintenance(sdRoot string, o op.Operation) bool {
	switch o.Kind {
	case op.Remove:
		return o.Destination == filepath.Join(sdRoot, constants.ApploaderDest) ||
			o.Destination == filepath.Join(sdRoot, constants.SwissGcDest)
	case op.MergeDir:
		return o.Destination == filepath.Join(sdRoot, constants.SwissDirDest)
	default:
		return false
	}
}

// volumePath maps a host destination back to its volume-root-relative
// form for reporting.
func volumePath(sdRoot, dest string) string {
	rel, err := filepath.Rel(sdRoot, dest)
	if err != nil {
		return dest
	}
	return "/" + filepath.ToSlash(rel)
}
