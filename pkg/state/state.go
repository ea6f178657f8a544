package state

import (
	"fmt"
	"path/filepath"

	internalUtils "github.com/gamecube-tools/swissinstall/internal/utils"
	"github.com/gamecube-tools/swissinstall/pkg/payload"
	"github.com/gamecube-tools/swissinstall/pkg/plan"
	"github.com/gamecube-tools/swissinstall/pkg/profile"
	"github.com/gamecube-tools/swissinstall/pkg/release"
	"github.com/hashicorp/go-multierror"
	"github.com/spectrocloud-labs/herd"
	"github.com/twpayne/go-vfs/v4"
)

type State struct {
	SDRoot         string // volume root the card is mounted on e.g. /media/sd
	Device         profile.Device
	Variant        profile.Variant
	Selection      release.Selection
	ForceOverwrite bool
	DryRun         bool
	HideFiles      bool
	WorkDir        string // scratch root for downloads and expansion

	FS     vfs.FS          // nil means the real filesystem
	Client *release.Client // nil means the default github client

	release  release.Release
	asset    string // downloaded swiss archive
	tree     string // extracted swiss archive
	bootDol  string // downloaded boot chain binary, empty without a variant
	bootIni  string // downloaded boot chain config, cubeboot only
	revision string
	layout   profile.Layout
	roles    payload.Roles
	plan     *plan.Plan
}

func (s *State) fs() vfs.FS {
	if s.FS == nil {
		return vfs.OSFS
	}
	return s.FS
}

func (s *State) gh() *release.Client {
	if s.Client == nil {
		s.Client = release.NewClient()
	}
	return s.Client
}

func (s *State) path(p ...string) string {
	return filepath.Join(append([]string{s.SDRoot}, p...)...)
}

// Plan returns the computed plan, nil before the build step ran.
func (s *State) Plan() *plan.Plan {
	return s.plan
}

// WriteDAG writes the dag.
func (s *State) WriteDAG(g *herd.Graph) (out string) {
	for i, layer := range g.Analyze() {
		out += fmt.Sprintf("%d.\n", i+1)
		for _, op := range layer {
			if op.Error != nil {
				out += fmt.Sprintf(" <%s> (error: %s) (background: %t) (weak: %t) (run: %t)\n", op.Name, op.Error.Error(), op.Background, op.WeakDeps, op.Executed)
			} else {
				out += fmt.Sprintf(" <%s> (background: %t) (weak: %t) (run: %t)\n", op.Name, op.Background, op.WeakDeps, op.Executed)
			}
		}
	}
	return
}

// GraphError collects the errors the run left on the graph, so the
// caller can turn them into a non-zero exit.
func (s *State) GraphError(g *herd.Graph) error {
	var result *multierror.Error
	for _, layer := range g.Analyze() {
		for _, op := range layer {
			if op.Error != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", op.Name, op.Error))
			}
		}
	}
	return result.ErrorOrNil()
}

// LogIfError will log if there is an error with the given context as message
// Context can be empty.
func (s *State) LogIfError(e error, msgContext string) {
	if e != nil {
		internalUtils.Log.Err(e).Msg(msgContext)
	}
}

// LogIfErrorAndReturn will log if there is an error with the given context as message
// Context can be empty
// Will also return the error.
func (s *State) LogIfErrorAndReturn(e error, msgContext string) error {
	if e != nil {
		internalUtils.Log.Err(e).Msg(msgContext)
	}
	return e
}
