package utils

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/gamecube-tools/swissinstall/internal/constants"
	"github.com/hashicorp/go-multierror"
	"github.com/twpayne/go-vfs/v4"
)

// HideTargets walks the volume and returns every path matching the FAT
// hide patterns, in pattern order. Directory matches (GBI, MCBACKUP,
// swiss) are returned as the directory itself, the attribute covers it.
func HideTargets(fsys vfs.FS, root string) ([]string, error) {
	var targets []string

	for _, pattern := range constants.HidePatterns() {
		err := vfs.Walk(fsys, root, func(path string, _ os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if path == root {
				return nil
			}
			match, _ := filepath.Match(pattern, filepath.Base(path))
			if match {
				targets = append(targets, path)
			}
			return nil
		})
		if err != nil {
			return targets, err
		}
	}

	return targets, nil
}

// HideAttributes sets the FAT hidden attribute on everything matching the
// hide patterns under root. fatattr missing from PATH downgrades the whole
// step to a notice, the install itself is done at this point. Per-file
// failures are collected and reported once.
func HideAttributes(fsys vfs.FS, root string) error {
	if _, err := exec.LookPath("fatattr"); err != nil {
		Log.Info().Msg("fatattr not found in PATH, skipping hide step")
		return nil
	}

	targets, err := HideTargets(fsys, root)
	if err != nil {
		return err
	}

	var result *multierror.Error
	for _, t := range targets {
		out, err := CommandWithPath(fmt.Sprintf("fatattr +h '%s'", t))
		if err != nil {
			Log.Debug().Str("target", t).Str("output", out).Msg("fatattr failed")
			result = multierror.Append(result, fmt.Errorf("hiding %s: %w", t, err))
		}
	}

	return result.ErrorOrNil()
}
