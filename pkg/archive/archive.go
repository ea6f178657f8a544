package archive

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gamecube-tools/swissinstall/internal/constants"
	internalUtils "github.com/gamecube-tools/swissinstall/internal/utils"
	"github.com/xi2/xz"
)

// Extract expands an archive into dest, picking the handler from the
// file name. Supported: .tar.xz natively, .zip natively, .7z through an
// external tool. Everything else is refused.
func Extract(src, dest string) error {
	if err := internalUtils.CreateIfNotExists(dest); err != nil {
		return err
	}

	name := strings.ToLower(filepath.Base(src))
	switch {
	case strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".txz"):
		return extractTarXz(src, dest)
	case strings.HasSuffix(name, ".zip"):
		return ExtractZip(src, dest)
	case strings.HasSuffix(name, ".7z"):
		return extract7z(src, dest)
	default:
		return fmt.Errorf("%s: %w", filepath.Base(src), constants.ErrUnsupportedArchive)
	}
}

// securePath keeps archive entries inside dest. Release archives are
// built by strangers, entry names are not trusted.
func securePath(dest, name string) (string, error) {
	p := filepath.Join(dest, name)
	if p != filepath.Clean(dest) && !strings.HasPrefix(p, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes destination", name)
	}
	return p, nil
}

func extractTarXz(src, dest string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	xzr, err := xz.NewReader(f, 0)
	if err != nil {
		return err
	}

	tr := tar.NewReader(xzr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := securePath(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := internalUtils.CreateIfNotExists(target); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr); err != nil {
				return err
			}
		default:
			// symlinks and devices have no meaning in a FAT payload
			internalUtils.Log.Debug().Str("entry", hdr.Name).Msg("Skipping non-regular archive entry")
		}
	}
}

// ExtractZip expands a zip into dest. Exported on its own because the
// release trees carry inner EXTRACT_TO_ROOT.zip payloads that get
// expanded during payload location.
func ExtractZip(src, dest string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer func() { _ = zr.Close() }()

	if err := internalUtils.CreateIfNotExists(dest); err != nil {
		return err
	}

	for _, f := range zr.File {
		target, err := securePath(dest, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := internalUtils.CreateIfNotExists(target); err != nil {
				return err
			}
			continue
		}

		in, err := f.Open()
		if err != nil {
			return err
		}
		err = writeEntry(target, in)
		_ = in.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func writeEntry(target string, r io.Reader) error {
	if err := internalUtils.CreateIfNotExists(filepath.Dir(target)); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.ModePerm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// extract7z shells out, a native 7z reader is not worth carrying for a
// fallback format. No tool in PATH means the asset is unusable, the
// releases almost always publish a .tar.xz sibling.
func extract7z(src, dest string) error {
	var tool string
	for _, cand := range []string{"7z", "7za", "7zr"} {
		if _, err := exec.LookPath(cand); err == nil {
			tool = cand
			break
		}
	}
	if tool == "" {
		return fmt.Errorf("no 7z tool in PATH for %s: %w", filepath.Base(src), constants.ErrUnsupportedArchive)
	}

	out, err := internalUtils.CommandWithPath(fmt.Sprintf("%s x -y -o'%s' '%s'", tool, dest, src))
	if err != nil {
		internalUtils.Log.Err(err).Str("output", out).Msg("7z extraction failed")
		return fmt.Errorf("extracting %s: %w", filepath.Base(src), err)
	}
	return nil
}
