package payload

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gamecube-tools/swissinstall/internal/constants"
	"github.com/gamecube-tools/swissinstall/internal/utils"
	"github.com/gamecube-tools/swissinstall/pkg/archive"
	"github.com/gamecube-tools/swissinstall/pkg/profile"
	"github.com/twpayne/go-vfs/v4"
)

// Roles maps each role a layout needs to the absolute path of the
// payload that fills it.
type Roles map[profile.Role]string

// FindMember resolves a relative member path inside an extracted tree.
// Exact match first, then a case-insensitive suffix walk so archives
// with shifted or re-cased toplevels still resolve.
func FindMember(fsys vfs.FS, root, rel string) (string, error) {
	exact := filepath.Join(root, rel)
	if _, err := fsys.Stat(exact); err == nil {
		return exact, nil
	}

	suffix := strings.ToLower(filepath.ToSlash(rel))
	var found string
	err := vfs.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil || found != "" {
			return err
		}
		if strings.HasSuffix(strings.ToLower(filepath.ToSlash(path)), suffix) {
			found = path
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("member %q not found under %s: %w", rel, root, constants.ErrMissingPayload)
	}
	return found, nil
}

// Locator resolves payload roles against the extracted release trees.
// Secondary archives (apploader bundle, gcloader image bundle, the
// gekkoboot root zip) are expanded lazily into Scratch and memoized so
// repeated roles reuse one expansion.
type Locator struct {
	FS      vfs.FS
	Tree    string // extracted swiss release archive
	Scratch string // scratch dir for nested archive expansion
	Tag     string

	// Boot chain payloads keep whatever name the publisher gave the
	// asset, so the fetcher hands over the exact downloaded paths.
	BootDol string
	BootIni string

	rev           string
	revDir        string
	apploaderTree string
	gekkobootTree string
	gcloaderTree  string
}

// Locate fills every role the layout requires. Missing required
// payloads fail, missing conditional ones log and are skipped.
func (l *Locator) Locate(layout profile.Layout) (Roles, error) {
	roles := Roles{}

	for _, role := range layout.Required {
		path, err := l.locate(role, layout)
		if err != nil {
			return nil, fmt.Errorf("role %s: %w", role, err)
		}
		roles[role] = path
	}

	for _, role := range layout.Conditional {
		path, err := l.locate(role, layout)
		if err != nil {
			utils.Log.Warn().Str("role", string(role)).Err(err).Msg("Optional payload missing, skipping")
			continue
		}
		roles[role] = path
	}

	return roles, nil
}

func (l *Locator) locate(role profile.Role, layout profile.Layout) (string, error) {
	switch role {
	case profile.PrimaryBoot:
		if layout.Device == profile.Picoloader && layout.Variant == profile.VariantNone {
			return l.gekkobootMember("ipl.dol")
		}
		return l.swissDol()
	case profile.ApploaderDir:
		if layout.Device == profile.Picoloader {
			return l.gekkobootMember("swiss")
		}
		return l.apploaderDir()
	case profile.DeviceImage:
		return l.gcloaderImage()
	case profile.AuxBootImage:
		return l.fetched(l.BootDol)
	case profile.AuxBootConfig:
		return l.fetched(l.BootIni)
	default:
		return "", fmt.Errorf("role %s has no payload source: %w", role, constants.ErrMissingPayload)
	}
}

func (l *Locator) revision() (rev, dir string, err error) {
	if l.rev == "" {
		l.rev, l.revDir, err = DetectRevision(l.FS, l.Tree, l.Tag)
		if err != nil {
			return "", "", err
		}
		utils.Log.Debug().Str("rev", l.rev).Str("dir", l.revDir).Msg("Detected swiss revision")
	}
	return l.rev, l.revDir, nil
}

func (l *Locator) swissDol() (string, error) {
	rev, dir, err := l.revision()
	if err != nil {
		return "", err
	}
	return FindMember(l.FS, l.Tree, filepath.Join(dir, "DOL", fmt.Sprintf("swiss_r%s.dol", rev)))
}

// apploaderDir expands the apploader bundle and returns the swiss/
// directory inside it, which carries patches/apploader.img.
func (l *Locator) apploaderDir() (string, error) {
	if l.apploaderTree == "" {
		_, dir, err := l.revision()
		if err != nil {
			return "", err
		}
		zip, err := FindMember(l.FS, l.Tree, filepath.Join(dir, "Apploader", "EXTRACT_TO_ROOT.zip"))
		if err != nil {
			return "", err
		}
		tree, err := l.expand(zip, "apploader")
		if err != nil {
			return "", err
		}
		l.apploaderTree = tree
	}
	return FindMember(l.FS, l.apploaderTree, "swiss")
}

// gcloaderImage expands the GCLoader bundle and walks it for boot.iso,
// which does not sit at a fixed depth across releases.
func (l *Locator) gcloaderImage() (string, error) {
	if l.gcloaderTree == "" {
		_, dir, err := l.revision()
		if err != nil {
			return "", err
		}
		zip, err := FindMember(l.FS, l.Tree, filepath.Join(dir, "GCLoader", "EXTRACT_TO_ROOT.zip"))
		if err != nil {
			return "", err
		}
		tree, err := l.expand(zip, "gcloader")
		if err != nil {
			return "", err
		}
		l.gcloaderTree = tree
	}

	var found string
	err := vfs.Walk(l.FS, l.gcloaderTree, func(path string, info os.FileInfo, err error) error {
		if err != nil || found != "" {
			return err
		}
		if !info.IsDir() && strings.EqualFold(filepath.Base(path), "boot.iso") {
			found = path
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("boot.iso not found in gcloader bundle: %w", constants.ErrMissingPayload)
	}
	return found, nil
}

// gekkobootMember expands the gekkoboot root zip nested in the swiss
// release and resolves a member inside it.
func (l *Locator) gekkobootMember(rel string) (string, error) {
	if l.gekkobootTree == "" {
		zip, err := l.findGekkobootZip()
		if err != nil {
			return "", err
		}
		tree, err := l.expand(zip, "gekkoboot")
		if err != nil {
			return "", err
		}
		l.gekkobootTree = tree
	}
	return FindMember(l.FS, l.gekkobootTree, rel)
}

// findGekkobootZip walks the release tree for the gekkoboot
// extract-to-root zip, which lives under a pico loader directory whose
// exact casing drifts between releases.
func (l *Locator) findGekkobootZip() (string, error) {
	var found string
	err := vfs.Walk(l.FS, l.Tree, func(path string, info os.FileInfo, err error) error {
		if err != nil || found != "" {
			return err
		}
		if info.IsDir() {
			return nil
		}
		lower := strings.ToLower(filepath.ToSlash(path))
		base := filepath.Base(lower)
		if strings.Contains(lower, "pico") && strings.Contains(lower, "loader") &&
			strings.Contains(lower, "gekkoboot") &&
			strings.Contains(base, "extract_to_root") && strings.HasSuffix(base, ".zip") {
			found = path
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("gekkoboot bundle not found in release tree: %w", constants.ErrMissingPayload)
	}
	return found, nil
}

func (l *Locator) fetched(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("no boot chain payload fetched: %w", constants.ErrMissingPayload)
	}
	if _, err := l.FS.Stat(path); err != nil {
		return "", fmt.Errorf("boot chain payload %s: %w", path, constants.ErrMissingPayload)
	}
	return path, nil
}

// Revision reports the swiss revision for the tree, detecting it on
// first use.
func (l *Locator) Revision() (string, error) {
	rev, _, err := l.revision()
	return rev, err
}

// expand unpacks a nested zip into a named scratch subdir. Extraction
// runs against the real filesystem, so the vfs path is bridged first.
func (l *Locator) expand(zipPath, name string) (string, error) {
	dest := filepath.Join(l.Scratch, name)
	raw, err := l.FS.RawPath(zipPath)
	if err != nil {
		return "", err
	}
	rawDest, err := l.FS.RawPath(dest)
	if err != nil {
		return "", err
	}
	if err := archive.ExtractZip(raw, rawDest); err != nil {
		return "", err
	}
	return dest, nil
}
