package utils

import (
	"os"

	"github.com/jaypipes/ghw"
	"github.com/moby/sys/mountinfo"
)

// Preflight runs the advisory checks on the volume root before anything is
// planned. Nothing here fails the run: installing into a plain directory is
// valid (loopback images, tests), it just loses the removable-media signals.
func Preflight(sdRoot string) {
	if _, err := os.Stat(sdRoot); os.IsNotExist(err) {
		Log.Info().Str("path", sdRoot).Msg("Volume root does not exist yet, will be created on apply")
		return
	}

	mounted, err := mountinfo.Mounted(sdRoot)
	if err != nil {
		Log.Debug().Err(err).Str("path", sdRoot).Msg("checking mount status")
		return
	}
	if !mounted {
		Log.Warn().Str("path", sdRoot).Msg("Volume root is not a mount point, writing to it anyway")
		return
	}

	blk, err := ghw.Block()
	if err != nil {
		Log.Debug().Err(err).Msg("reading block devices")
		return
	}
	for _, disk := range blk.Disks {
		for _, part := range disk.Partitions {
			if part.MountPoint != sdRoot {
				continue
			}
			Log.Info().Str("disk", disk.Name).Str("partition", part.Name).Str("fs", part.Type).Bool("removable", disk.IsRemovable).Msg("Target volume")
			if !disk.IsRemovable {
				Log.Warn().Str("disk", disk.Name).Msg("Target disk does not report as removable media, double check --sd-root")
			}
			return
		}
	}
	Log.Debug().Str("path", sdRoot).Msg("No block device claims the volume root")
}
