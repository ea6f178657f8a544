package op

import (
	"io"
	"os"
	"path/filepath"

	"github.com/twpayne/go-vfs/v4"
)

// Exists reports whether path is present on the filesystem, file or
// directory alike.
func Exists(fsys vfs.FS, path string) bool {
	_, err := fsys.Stat(path)
	return err == nil
}

// copyFile streams src over dst, truncating any previous content.
// Payloads include disc images, so no full in-memory reads.
func copyFile(fsys vfs.FS, src, dst string) error {
	if err := vfs.MkdirAll(fsys, filepath.Dir(dst), os.ModeDir|os.ModePerm); err != nil {
		return err
	}

	in, err := fsys.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fsys.Create(dst)
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// mergeDir copies src into dst recursively. Existing files are
// overwritten, files only present in dst are left alone.
func mergeDir(fsys vfs.FS, src, dst string) error {
	return vfs.Walk(fsys, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return vfs.MkdirAll(fsys, target, os.ModeDir|os.ModePerm)
		}
		return copyFile(fsys, path, target)
	})
}
