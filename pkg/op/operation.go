package op

import (
	"fmt"

	internalUtils "github.com/gamecube-tools/swissinstall/internal/utils"
	"github.com/twpayne/go-vfs/v4"
)

type Kind string

const (
	Remove   Kind = "remove"
	CopyFile Kind = "copyFile"
	MergeDir Kind = "mergeDir"
)

// Operation is a single mutation of the target volume. Source is empty
// for removals. Destination is always volume-absolute.
type Operation struct {
	Kind        Kind
	Source      string
	Destination string
}

func (o Operation) String() string {
	if o.Kind == Remove {
		return fmt.Sprintf("%s %s", o.Kind, o.Destination)
	}
	return fmt.Sprintf("%s %s -> %s", o.Kind, o.Source, o.Destination)
}

// Run applies the operation. The volume may be removable media, so we
// sync after every mutation rather than trusting the page cache.
func (o Operation) Run(fsys vfs.FS) error {
	defer internalUtils.Sync()

	// Add context to sublogger
	l := internalUtils.Log.With().Str("op", string(o.Kind)).Str("what", o.Source).Str("where", o.Destination).Logger()

	switch o.Kind {
	case Remove:
		l.Debug().Msg("Removing")
		if err := fsys.RemoveAll(o.Destination); err != nil {
			l.Warn().Err(err).Msg("removing target")
			return err
		}
		return nil
	case CopyFile:
		l.Debug().Msg("Copying file")
		if err := copyFile(fsys, o.Source, o.Destination); err != nil {
			l.Warn().Err(err).Msg("copying file")
			return err
		}
		return nil
	case MergeDir:
		l.Debug().Msg("Merging directory")
		if err := mergeDir(fsys, o.Source, o.Destination); err != nil {
			l.Warn().Err(err).Msg("merging directory")
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown operation kind %q", o.Kind)
	}
}
