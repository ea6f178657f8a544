package dag

import (
	"github.com/gamecube-tools/swissinstall/pkg/state"
	"github.com/spectrocloud-labs/herd"
)

// RegisterInstall registers the dag for a real install run: resolve
// the release, fetch and extract the payloads, plan against the card
// and apply, then the post-apply housekeeping (receipt, hidden
// attributes). The boot chain fetch runs in parallel with the swiss
// fetch, everything volume-touching is strictly ordered behind the
// plan.
func RegisterInstall(s *state.State, g *herd.Graph) error {
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
	s.LogIfError(s.ApplyPlanDagStep(g), "apply plan")
	s.LogIfError(s.WriteReceiptDagStep(g), "write receipt")
	s.LogIfError(s.HideFilesDagStep(g), "hide files")

	return err
}
