package state

import (
	"context"
	"os"
	"time"

	cnst "github.com/gamecube-tools/swissinstall/internal/constants"
	internalUtils "github.com/gamecube-tools/swissinstall/internal/utils"
	"github.com/gamecube-tools/swissinstall/pkg/schema"
	"github.com/gofrs/uuid"
	"github.com/spectrocloud-labs/herd"
	"gopkg.in/yaml.v3"
)

// readReceipt reports what an earlier run left on the volume. Fresh
// cards have no receipt and hand-edited ones may not parse, neither is
// worth more than a debug line.
func (s *State) readReceipt() {
	data, err := s.fs().ReadFile(s.path(cnst.ReceiptDest))
	if err != nil {
		internalUtils.Log.Debug().Err(err).Msg("No previous install receipt")
		return
	}
	r := schema.Receipt{}
	if err := yaml.Unmarshal(data, &r); err != nil {
		internalUtils.Log.Debug().Err(err).Msg("Receipt on the volume does not parse")
		return
	}
	internalUtils.Log.Info().Str("tag", r.Tag).Str("device", r.Device).Str("installed", r.InstalledAt.Format(time.RFC3339)).Msg("Card carries a previous install")
}

// WriteReceiptDagStep records what the run installed at the volume
// root. Skipped for blocked plans, those leave the volume untouched.
func (s *State) WriteReceiptDagStep(g *herd.Graph) error {
	return g.Add(cnst.OpWriteReceipt,
		herd.WithDeps(cnst.OpApplyPlan),
		herd.WithCallback(
			func(_ context.Context) error {
				if s.plan == nil || s.plan.Blocked() {
					return nil
				}
				id, err := uuid.NewV4()
				if err != nil {
					return err
				}
				ops := make([]string, 0, len(s.plan.Operations))
				for _, o := range s.plan.Operations {
					ops = append(ops, o.String())
				}
				receipt := schema.Receipt{
					RunID:       id.String(),
					Tag:         s.release.Tag,
					Revision:    s.revision,
					Device:      string(s.Device),
					Variant:     string(s.Variant),
					Force:       s.ForceOverwrite,
					Operations:  ops,
					InstalledAt: time.Now().UTC(),
				}
				data, err := yaml.Marshal(receipt)
				if err != nil {
					return err
				}
				internalUtils.Log.Debug().Str("path", s.path(cnst.ReceiptDest)).Msg("Writing receipt")
				return s.fs().WriteFile(s.path(cnst.ReceiptDest), data, os.ModePerm)
			},
		))
}
