package state

import (
	"context"
	"fmt"
	"path/filepath"

	cnst "github.com/gamecube-tools/swissinstall/internal/constants"
	internalUtils "github.com/gamecube-tools/swissinstall/internal/utils"
	"github.com/gamecube-tools/swissinstall/pkg/archive"
	"github.com/gamecube-tools/swissinstall/pkg/op"
	"github.com/gamecube-tools/swissinstall/pkg/payload"
	"github.com/gamecube-tools/swissinstall/pkg/plan"
	"github.com/gamecube-tools/swissinstall/pkg/profile"
	"github.com/gamecube-tools/swissinstall/pkg/release"
	"github.com/spectrocloud-labs/herd"
)

// PreflightDagStep checks the target looks like a mounted SD card and
// prepares the scratch dir. Advisory only, it never fails the run.
func (s *State) PreflightDagStep(g *herd.Graph) error {
	return g.Add(cnst.OpPreflight, herd.WithCallback(
		func(_ context.Context) error {
			internalUtils.Preflight(s.SDRoot)
			s.readReceipt()
			return internalUtils.CreateIfNotExists(s.WorkDir)
		},
	))
}

// ResolveReleaseDagStep picks the swiss release the run installs,
// applying the gcloader blacklist policy for implicit selections.
func (s *State) ResolveReleaseDagStep(g *herd.Graph) error {
	return g.Add(cnst.OpResolveRelease, herd.WithCallback(
		func(ctx context.Context) error {
			catalog, err := s.gh().Releases(ctx, cnst.SwissRepo)
			if err != nil {
				return err
			}
			rel, err := release.Resolve(catalog, s.Selection, s.Device)
			if err != nil {
				return err
			}
			s.release = rel
			internalUtils.Log.Info().Str("tag", rel.Tag).Str("selection", s.Selection.String()).Msg("Resolved swiss release")
			return nil
		},
	))
}

func (s *State) FetchSwissDagStep(g *herd.Graph) error {
	return g.Add(cnst.OpFetchSwiss,
		herd.WithDeps(cnst.OpResolveRelease),
		herd.WithCallback(
			func(ctx context.Context) error {
				asset, err := s.release.Archive()
				if err != nil {
					return err
				}
				path, err := s.gh().Download(ctx, asset, filepath.Join(s.WorkDir, "assets"))
				if err != nil {
					return err
				}
				s.asset = path
				return nil
			},
		))
}

func (s *State) ExtractSwissDagStep(g *herd.Graph) error {
	return g.Add(cnst.OpExtractSwiss,
		herd.WithDeps(cnst.OpFetchSwiss),
		herd.WithCallback(
			func(_ context.Context) error {
				dest := filepath.Join(s.WorkDir, "swiss")
				if err := archive.Extract(s.asset, dest); err != nil {
					return err
				}
				s.tree = dest
				return nil
			},
		))
}

// FetchBootChainDagStep downloads the boot chain binary for the
// selected variant from its publisher's latest release. Runs in
// parallel with the swiss fetch, no-op without a variant.
func (s *State) FetchBootChainDagStep(g *herd.Graph) error {
	return g.Add(cnst.OpFetchBootChain, herd.WithCallback(
		func(ctx context.Context) error {
			if s.Variant == profile.VariantNone {
				internalUtils.Log.Debug().Msg("No boot chain variant selected")
				return nil
			}

			repo := cnst.CubebootRepo
			dol := cnst.CubebootDol
			if s.Variant == profile.Cubiboot {
				repo = cnst.CubibootRepo
				dol = cnst.CubibootDol
			}

			rel, err := s.gh().LatestRelease(ctx, repo)
			if err != nil {
				return err
			}
			asset, err := rel.FindAsset(dol, ".dol")
			if err != nil {
				return err
			}
			dir := filepath.Join(s.WorkDir, "bootchain")
			path, err := s.gh().Download(ctx, asset, dir)
			if err != nil {
				return err
			}
			s.bootDol = path
			internalUtils.Log.Info().Str("tag", rel.Tag).Str("asset", asset.Name).Msg("Fetched boot chain")

			// The cubeboot config is user-owned once written, so it is
			// only fetched while the card has none. Publishers shipping
			// without one is fine.
			if s.Variant == profile.Cubeboot && !op.Exists(s.fs(), s.path(cnst.CubebootIniDest)) {
				ini, err := rel.FindAsset(cnst.CubebootIni, ".ini")
				if err != nil {
					internalUtils.Log.Warn().Err(err).Msg("No boot chain config published, continuing without")
					return nil
				}
				path, err := s.gh().Download(ctx, ini, dir)
				if err != nil {
					internalUtils.Log.Warn().Err(err).Msg("Boot chain config download failed, continuing without")
					return nil
				}
				s.bootIni = path
			}
			return nil
		},
	))
}

// LocatePayloadDagStep maps every role of the device layout to a file
// in the fetched trees.
func (s *State) LocatePayloadDagStep(g *herd.Graph) error {
	return g.Add(cnst.OpLocatePayload,
		herd.WithDeps(cnst.OpExtractSwiss, cnst.OpFetchBootChain),
		herd.WithCallback(
			func(_ context.Context) error {
				layout, err := profile.For(s.Device, s.Variant)
				if err != nil {
					return err
				}
				s.layout = layout

				locator := &payload.Locator{
					FS:      s.fs(),
					Tree:    s.tree,
					Scratch: filepath.Join(s.WorkDir, "expand"),
					Tag:     s.release.Tag,
					BootDol: s.bootDol,
					BootIni: s.bootIni,
				}
				roles, err := locator.Locate(layout)
				if err != nil {
					return err
				}
				s.roles = roles
				s.revision, _ = locator.Revision()
				internalUtils.Log.Debug().Interface("roles", roles).Msg("Payload located")
				return nil
			},
		))
}

func (s *State) BuildPlanDagStep(g *herd.Graph) error {
	return g.Add(cnst.OpBuildPlan,
		herd.WithDeps(cnst.OpLocatePayload),
		herd.WithWeakDeps(cnst.OpPreflight),
		herd.WithCallback(
			func(_ context.Context) error {
				p, err := plan.Build(s.fs(), s.SDRoot, s.layout, s.roles, s.ForceOverwrite)
				if err != nil {
					return err
				}
				plan.Gate(s.fs(), s.SDRoot, p, s.ForceOverwrite)
				p.Simulated = s.DryRun
				s.plan = p
				return nil
			},
		))
}

// ApplyPlanDagStep runs the plan against the volume, in order, one
// operation at a time. A blocked plan is reported and nothing is
// written.
func (s *State) ApplyPlanDagStep(g *herd.Graph) error {
	return g.Add(cnst.OpApplyPlan,
		herd.WithDeps(cnst.OpBuildPlan),
		herd.WithCallback(
			func(ctx context.Context) error {
				if s.plan == nil {
					return fmt.Errorf("no plan computed")
				}
				if s.plan.Blocked() {
					internalUtils.Log.Warn().Msg("Plan blocked, volume left untouched. Re-run with --force to overwrite.")
					internalUtils.Log.Info().Msg(s.plan.String())
					return s.plan.Reason()
				}
				if err := internalUtils.CreateIfNotExists(s.SDRoot); err != nil {
					return err
				}
				for _, o := range s.plan.Operations {
					select {
					case <-ctx.Done():
						return fmt.Errorf("apply canceled at %s", o)
					default:
					}
					internalUtils.Log.Info().Str("operation", o.String()).Msg("Applying")
					if err := o.Run(s.fs()); err != nil {
						return err
					}
				}
				return nil
			},
		))
}

// PreviewPlanDagStep prints the plan instead of applying it. Blocked
// plans are still previewable, that is the point of a dry run.
func (s *State) PreviewPlanDagStep(g *herd.Graph) error {
	return g.Add(cnst.OpPreviewPlan,
		herd.WithDeps(cnst.OpBuildPlan),
		herd.WithCallback(
			func(_ context.Context) error {
				if s.plan == nil {
					return fmt.Errorf("no plan computed")
				}
				internalUtils.Log.Info().Msg("Plan preview, nothing will be written:\n" + s.plan.String())
				if s.plan.Blocked() {
					internalUtils.Log.Warn().Msg("Plan would block without --force")
				}
				return nil
			},
		))
}

// HideFilesDagStep applies FAT hidden attributes so the card menus on
// the console stay clean. Missing tool or partial failures degrade to
// a notice.
func (s *State) HideFilesDagStep(g *herd.Graph) error {
	return g.Add(cnst.OpHideFiles,
		herd.WithDeps(cnst.OpApplyPlan),
		herd.WithCallback(
			func(_ context.Context) error {
				if !s.HideFiles {
					return nil
				}
				if s.plan == nil || s.plan.Blocked() {
					return nil
				}
				s.LogIfError(internalUtils.HideAttributes(s.fs(), s.SDRoot), "hiding files")
				return nil
			},
		))
}
