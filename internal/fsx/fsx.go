// Package fsx replaces files atomically on an afero filesystem.
package fsx

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// TempPattern is the afero.TempFile pattern used for scratch files. The
// leading dot keeps them out of casual directory listings.
const TempPattern = ".stamp-*.tmp"

// WriteFileAtomic writes data to a temp file in the directory of path and
// renames it over path. Readers see either the old or the new content, never a
// partial write. The temp file is removed on every failure path.
//
// If path already exists its permission bits are kept; otherwise perm is used.
func WriteFileAtomic(fsys afero.Fs, path string, data []byte, perm fs.FileMode) (err error) {
	if info, statErr := fsys.Stat(path); statErr == nil {
		if info.IsDir() {
			return fmt.Errorf("%s: is a directory", path)
		}
		perm = info.Mode().Perm()
	} else if !os.IsNotExist(statErr) {
		return fmt.Errorf("stat %s: %w", path, statErr)
	}

	dir := filepath.Dir(path)
	tmp, err := afero.TempFile(fsys, dir, TempPattern)
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = fsys.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = fsys.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("setting mode on temp file: %w", err)
	}
	if err = fsys.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", path, err)
	}
	return nil
}

// Leftovers returns the temp files WriteFileAtomic may have abandoned in dir,
// e.g. after the process was killed mid-write.
func Leftovers(fsys afero.Fs, dir string) ([]string, error) {
	matches, err := afero.Glob(fsys, filepath.Join(dir, TempPattern))
	if err != nil {
		return nil, fmt.Errorf("listing temp files: %w", err)
	}
	return matches, nil
}
