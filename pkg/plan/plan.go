package plan

import (
	"fmt"
	"strings"

	"github.com/gamecube-tools/swissinstall/internal/constants"
	"github.com/gamecube-tools/swissinstall/pkg/op"
	"github.com/hashicorp/go-multierror"
)

// Plan is the ordered list of volume operations computed before any
// write happens. A blocked plan keeps its survivable operations and
// carries one reason per conflicting path; it is previewable but never
// applied.
type Plan struct {
	Operations []op.Operation
	Simulated  bool

	reasons *multierror.Error
	blocked map[string]struct{}
}

func (p *Plan) Append(o op.Operation) {
	p.Operations = append(p.Operations, o)
}

// Block marks path as conflicting. Repeated blocks on the same path
// collapse into one reason.
func (p *Plan) Block(path string) {
	if p.blocked == nil {
		p.blocked = map[string]struct{}{}
	}
	if _, ok := p.blocked[path]; ok {
		return
	}
	p.blocked[path] = struct{}{}
	p.reasons = multierror.Append(p.reasons, fmt.Errorf("%s: %w", path, constants.ErrExistingFile))
}

func (p *Plan) Blocked() bool {
	return len(p.blocked) > 0
}

// BlockedPath reports whether path already carries a block.
func (p *Plan) BlockedPath(path string) bool {
	_, ok := p.blocked[path]
	return ok
}

// Reason returns the accumulated conflict reasons, nil when unblocked.
func (p *Plan) Reason() error {
	return p.reasons.ErrorOrNil()
}

func (p *Plan) String() string {
	var sb strings.Builder
	for i, o := range p.Operations {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, o))
	}
	if p.Blocked() {
		sb.WriteString(fmt.Sprintf("blocked: %s\n", p.Reason()))
	}
	return sb.String()
}
