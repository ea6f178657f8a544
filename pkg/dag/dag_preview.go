package dag

import (
	"github.com/gamecube-tools/swissinstall/pkg/state"
	"github.com/spectrocloud-labs/herd"
)

// RegisterPreview registers the dry-run dag. Same resolution, fetch
// and planning as an install, but the plan is printed instead of
// applied, so nothing past the scratch dir is written. Blocked plans
// preview fine, the run still exits clean.
func RegisterPreview(s *state.State, g *herd.Graph) error {
	var err error

	s.LogIfError(s.PreflightDagStep(g), "preflight")

	if err = s.LogIfErrorAndReturn(s.ResolveReleaseDagStep(g), "resolve release"); err != nil {
		return err
	}

	s.LogIfError(s.FetchSwissDagStep(g), "fetch swiss")
	s.LogIfError(s.ExtractSwissDagStep(g), "extract swiss")
	s.LogIfError(s.FetchBootChainDagStep(g), "fetch boot chain")
	s.LogIfError(s.LocatePayloadDagStep(g), "locate payload")
	s.LogIfError(s.BuildPlanDagStep(g), "build plan")
	s.LogIfError(s.PreviewPlanDagStep(g), "preview plan")

	return err
}
