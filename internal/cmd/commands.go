package cmd

import (
	"fmt"
	"strings"

	"github.com/gamecube-tools/swissinstall/internal/constants"
	"github.com/gamecube-tools/swissinstall/internal/utils"
	"github.com/gamecube-tools/swissinstall/internal/version"
	"github.com/gamecube-tools/swissinstall/pkg/profile"
	"github.com/gamecube-tools/swissinstall/pkg/release"
	"github.com/urfave/cli/v2"
)

var Commands = []*cli.Command{
	{
		Name:      "releases",
		Usage:     "list installable swiss releases",
		UsageText: "releases [--device DEVICE]",
		Description: `
Lists the release catalog newest first, marking the entries an implicit
selection skips: drafts, prereleases and, for gcloader, blacklisted tags.
`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "device",
				Value: "picoboot",
				Usage: "device the listing is for, switches the blacklist marks on",
			},
		},
		Action: func(c *cli.Context) error {
			utils.SetLogger()

			device, err := profile.ParseDevice(c.String("device"))
			if err != nil {
				return err
			}

			catalog, err := release.NewClient().Releases(c.Context, constants.SwissRepo)
			if err != nil {
				return err
			}

			for _, r := range catalog {
				var marks []string
				if r.Draft {
					marks = append(marks, "draft")
				}
				if r.Prerelease {
					marks = append(marks, "prerelease")
				}
				if device == profile.GCLoader && release.Blacklisted(r.Tag) {
					marks = append(marks, "blacklisted")
				}
				fmt.Printf("%-16s %s %s\n", r.Tag, r.PublishedAt.Format("2006-01-02"), strings.Join(marks, ","))
			}
			return nil
		},
	},
	{
		Name:  "version",
		Usage: "version",
		Action: func(_ *cli.Context) error {
			utils.SetLogger()
			v := version.Get()
			utils.Log.Info().Str("commit", v.GitCommit).Str("compiled with", v.GoVersion).Str("version", v.Version).Msg("Swissinstall")
			return nil
		},
	},
}
