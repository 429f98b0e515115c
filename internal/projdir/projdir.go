// Package projdir locates the root of the integration repository so that
// relative manifest and version file paths resolve the same way no matter
// which subdirectory stamp is invoked from.
package projdir

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// ConfigFileName is the project-local config file; its directory marks the
// project root.
const ConfigFileName = ".stamp.yaml"

// Find walks from start toward the filesystem root and returns the first
// directory holding ConfigFileName. Without one, the closest directory holding
// a .git entry (directory or worktree file) wins. When neither exists the
// absolute form of start is returned.
func Find(fsys afero.Fs, start string) (string, error) {
	startAbs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("getting absolute path: %w", err)
	}

	gitRoot := ""
	dir := startAbs
	for {
		if ok, err := exists(fsys, filepath.Join(dir, ConfigFileName)); err != nil {
			return "", err
		} else if ok {
			return dir, nil
		}
		if gitRoot == "" {
			ok, err := exists(fsys, filepath.Join(dir, ".git"))
			if err != nil {
				return "", err
			}
			if ok {
				gitRoot = dir
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if gitRoot != "" {
		return gitRoot, nil
	}
	return startAbs, nil
}

// Resolve returns p unchanged when it is absolute and joined to root otherwise.
func Resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

// EnsureFile creates path and its parent directories if they do not exist.
// The file is created with 0644 permissions since project config is meant to
// be committed. A no-op if the file already exists.
func EnsureFile(fsys afero.Fs, path string) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	f, err := fsys.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return fmt.Errorf("creating config file: %w", err)
	}
	return f.Close()
}

func exists(fsys afero.Fs, path string) (bool, error) {
	_, err := fsys.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
}
