package plan

import (
	"fmt"
	"path/filepath"

	"github.com/gamecube-tools/swissinstall/internal/constants"
	internalUtils "github.com/gamecube-tools/swissinstall/internal/utils"
	"github.com/gamecube-tools/swissinstall/pkg/op"
	"github.com/gamecube-tools/swissinstall/pkg/payload"
	"github.com/gamecube-tools/swissinstall/pkg/profile"
	"github.com/twpayne/go-vfs/v4"
)

// bootRoles is the emission order for boot image placement. Every
// remove for a path written here is emitted before this loop runs.
var bootRoles = []profile.Role{profile.PrimaryBoot, profile.AuxBootImage, profile.DeviceImage}

// Build computes the ordered operation list for one install run. It
// only reads the volume (existence checks), never writes it.
func Build(fsys vfs.FS, sdRoot string, layout profile.Layout, roles payload.Roles, force bool) (*Plan, error) {
	p := &Plan{}
	join := func(vol string) string { return filepath.Join(sdRoot, vol) }

	// Drop a stale /swiss-gc.dol left by an earlier cubiboot install,
	// otherwise the loader has two swiss binaries to pick from.
	if layout.CleansStaleSwissGc && op.Exists(fsys, join(constants.SwissGcDest)) {
		p.Append(op.Operation{Kind: op.Remove, Destination: join(constants.SwissGcDest)})
	}

	// Apploader refresh happens on every run, force or not.
	apploaderSrc, ok := roles[profile.ApploaderDir]
	if !ok {
		return nil, fmt.Errorf("role %s: %w", profile.ApploaderDir, constants.ErrMissingPayload)
	}
	p.Append(op.Operation{Kind: op.Remove, Destination: join(constants.ApploaderDest)})
	p.Append(op.Operation{Kind: op.MergeDir, Source: apploaderSrc, Destination: join(constants.SwissDirDest)})

	// Leftover loader binaries shadow the new /ipl.dol on picoloader
	// cards. With force they go, without it the plan blocks.
	for _, vol := range layout.ConflictPaths {
		if !op.Exists(fsys, join(vol)) {
			continue
		}
		if force {
			p.Append(op.Operation{Kind: op.Remove, Destination: join(vol)})
		} else {
			internalUtils.Log.Debug().Str("path", vol).Msg("Conflicting file present without force")
			p.Block(vol)
		}
	}

	for _, role := range bootRoles {
		vol, ok := layout.Destinations[role]
		if !ok {
			continue
		}
		src, ok := roles[role]
		if !ok {
			if layout.Requires(role) {
				return nil, fmt.Errorf("role %s: %w", role, constants.ErrMissingPayload)
			}
			continue
		}
		p.Append(op.Operation{Kind: op.CopyFile, Source: src, Destination: join(vol)})
	}

	// The boot chain config is written once and then owned by the
	// user, so an existing file is kept rather than blocked.
	if vol, ok := layout.Destinations[profile.AuxBootConfig]; ok {
		src, found := roles[profile.AuxBootConfig]
		switch {
		case !found:
		case op.Exists(fsys, join(vol)):
			internalUtils.Log.Debug().Str("path", vol).Msg("Config already present, keeping it")
		default:
			p.Append(op.Operation{Kind: op.CopyFile, Source: src, Destination: join(vol)})
		}
	}

	return p, nil
}
