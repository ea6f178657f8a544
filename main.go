package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gamecube-tools/swissinstall/internal/cmd"
	"github.com/gamecube-tools/swissinstall/internal/utils"
	"github.com/gamecube-tools/swissinstall/internal/version"
	"github.com/gamecube-tools/swissinstall/pkg/dag"
	"github.com/gamecube-tools/swissinstall/pkg/profile"
	"github.com/gamecube-tools/swissinstall/pkg/release"
	"github.com/gamecube-tools/swissinstall/pkg/state"
	"github.com/spectrocloud-labs/herd"
	"github.com/urfave/cli/v2"
)

// Install swiss on a prepared SD card.
func main() {
	app := cli.NewApp()
	app.Name = "swissinstall"
	app.Usage = "fetch a swiss release and install it on an SD card"
	app.Version = version.GetVersion()
	app.Authors = []*cli.Author{{Name: "swissinstall authors"}}
	app.Copyright = "swissinstall authors"
	app.Action = func(c *cli.Context) (err error) {
		utils.SetLogger()
		if c.Bool("verbose") {
			utils.DebugLogs()
		}

		v := version.Get()
		utils.Log.Info().Str("commit", v.GitCommit).Str("compiled with", v.GoVersion).Str("version", v.Version).Msg("Swissinstall")

		device, err := profile.ParseDevice(c.String("device"))
		if err != nil {
			return err
		}
		variant, err := profile.ParseVariant(c.Bool("cubeboot"), c.Bool("cubiboot"))
		if err != nil {
			return err
		}
		// gcloader boots from its own image, a chained loader on the
		// card would never run. Keep going without it.
		if device == profile.GCLoader && variant != profile.VariantNone {
			utils.Log.Warn().Str("variant", string(variant)).Msg("gcloader does not chain a boot variant, ignoring it")
			variant = profile.VariantNone
		}

		if c.String("tag") != "" && c.Bool("previous-release") {
			return fmt.Errorf("--tag and --previous-release are mutually exclusive")
		}
		selection := release.Latest()
		if c.String("tag") != "" {
			selection = release.Pin(c.String("tag"))
		}
		if c.Bool("previous-release") {
			selection = release.Previous()
		}

		workdir := c.String("work-dir")
		if workdir == "" {
			workdir, err = os.MkdirTemp("", "swissinstall")
			if err != nil {
				return err
			}
			defer os.RemoveAll(workdir)
		}

		g := herd.DAG(herd.EnableInit)
		s := &state.State{
			SDRoot:         c.String("sd-root"),
			Device:         device,
			Variant:        variant,
			Selection:      selection,
			ForceOverwrite: c.Bool("force"),
			DryRun:         c.Bool("dry-run"),
			HideFiles:      c.Bool("hide-files"),
			WorkDir:        workdir,
		}

		if s.DryRun {
			err = dag.RegisterPreview(s, g)
		} else {
			err = dag.RegisterInstall(s, g)
		}
		if err != nil {
			return err
		}

		utils.Log.Info().Msg(s.WriteDAG(g))

		err = g.Run(context.Background())
		utils.Log.Info().Msg(s.WriteDAG(g))
		if err != nil {
			return err
		}
		return s.GraphError(g)
	}
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:     "sd-root",
			EnvVars:  []string{"SWISSINSTALL_SD_ROOT"},
			Usage:    "path the SD card is mounted on",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "device",
			EnvVars:  []string{"SWISSINSTALL_DEVICE"},
			Usage:    "boot hardware of the card: picoboot, picoloader or gcloader",
			Required: true,
		},
		&cli.BoolFlag{
			Name:    "cubeboot",
			EnvVars: []string{"SWISSINSTALL_CUBEBOOT"},
			Usage:   "chain the cubeboot loader in front of swiss",
		},
		&cli.BoolFlag{
			Name:    "cubiboot",
			EnvVars: []string{"SWISSINSTALL_CUBIBOOT"},
			Usage:   "chain the cubiboot loader in front of swiss",
		},
		&cli.StringFlag{
			Name:    "tag",
			EnvVars: []string{"SWISSINSTALL_TAG"},
			Usage:   "pin an exact release tag instead of the latest",
		},
		&cli.BoolFlag{
			Name:    "previous-release",
			EnvVars: []string{"SWISSINSTALL_PREVIOUS_RELEASE"},
			Usage:   "install the release before the latest",
		},
		&cli.BoolFlag{
			Name:    "force",
			EnvVars: []string{"SWISSINSTALL_FORCE"},
			Usage:   "overwrite files already on the card",
		},
		&cli.BoolFlag{
			Name:    "dry-run",
			EnvVars: []string{"SWISSINSTALL_DRY_RUN"},
			Usage:   "print the plan without writing the card",
		},
		&cli.BoolFlag{
			Name:    "hide-files",
			EnvVars: []string{"SWISSINSTALL_HIDE_FILES"},
			Usage:   "set FAT hidden attributes on installed files",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			EnvVars: []string{"SWISSINSTALL_DEBUG"},
			Usage:   "debug logging",
		},
		&cli.StringFlag{
			Name:    "work-dir",
			EnvVars: []string{"SWISSINSTALL_WORK_DIR"},
			Usage:   "keep downloads and extraction in this dir instead of a temp one",
		},
	}
	app.Commands = cmd.Commands

	err := app.Run(os.Args)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
