// Package stamp writes a release version into an integration's manifest.json
// and version.py, and checks that the two agree.
package stamp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/tbckr/stamp/internal/apperr"
	"github.com/tbckr/stamp/internal/fsx"
	"github.com/tbckr/stamp/internal/manifest"
	"github.com/tbckr/stamp/internal/pyversion"
	"github.com/tbckr/stamp/internal/semverx"
)

// versionFileMode is used when the version file does not exist yet.
const versionFileMode = 0o644

// Options tune a Stamper.
type Options struct {
	// Strict requires versions to be semantic versions.
	Strict bool
	// DryRun computes results without writing any file.
	DryRun bool
}

// Stamper stamps versions into targets on fs.
type Stamper struct {
	fs     afero.Fs
	logger *slog.Logger
	opts   Options
}

// New returns a Stamper operating on fs.
func New(fs afero.Fs, logger *slog.Logger, opts Options) *Stamper {
	return &Stamper{fs: fs, logger: logger, opts: opts}
}

// Result describes the outcome of stamping one target.
type Result struct {
	Target   Target `json:"target"`
	Previous string `json:"previous"`
	Version  string `json:"version"`
	Changed  bool   `json:"changed"`
	DryRun   bool   `json:"dry_run,omitempty"`
}

// CheckVersion validates version according to the Stamper's options.
func (s *Stamper) CheckVersion(version string) error {
	if version == "" {
		return fmt.Errorf("%w: version must not be empty", apperr.ErrInvalidInput)
	}
	if strings.ContainsAny(version, "\r\n") {
		return fmt.Errorf("%w: version must be a single line", apperr.ErrInvalidInput)
	}
	// JSON and Python would otherwise store different strings.
	if !utf8.ValidString(version) {
		return fmt.Errorf("%w: version %q is not valid UTF-8", apperr.ErrInvalidInput, version)
	}
	if i := strings.IndexFunc(version, unicode.IsControl); i >= 0 {
		return fmt.Errorf("%w: version %q contains control character at byte %d", apperr.ErrInvalidInput, version, i)
	}
	if s.opts.Strict {
		return semverx.Validate(version)
	}
	return nil
}

// Stamp writes version into t's manifest and version file. The manifest is
// validated before anything is written, so a malformed manifest leaves both
// files untouched. Running Stamp twice with the same version is a no-op the
// second time.
func (s *Stamper) Stamp(ctx context.Context, t Target, version string) (Result, error) {
	res := Result{Target: t, Version: version, DryRun: s.opts.DryRun}
	if err := s.CheckVersion(version); err != nil {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	m, err := manifest.Read(s.fs, t.Manifest)
	if err != nil {
		return res, err
	}
	res.Previous = m.Version
	s.warnIfDowngrade(t, m.Version, version)

	manifestData, err := m.SetVersion(version)
	if err != nil {
		return res, fmt.Errorf("%s: %w", t.Manifest, err)
	}
	versionData := pyversion.Render(version)

	oldVersionData, err := afero.ReadFile(s.fs, t.VersionFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return res, fmt.Errorf("reading version file: %w", err)
	}

	manifestChanged := string(manifestData) != string(m.Raw)
	versionChanged := string(versionData) != string(oldVersionData)
	res.Changed = manifestChanged || versionChanged

	if s.opts.DryRun {
		s.logger.Info("dry run, not writing", "target", t.DisplayName(), "version", version, "changed", res.Changed)
		return res, nil
	}

	if manifestChanged {
		if err := fsx.WriteFileAtomic(s.fs, t.Manifest, manifestData, versionFileMode); err != nil {
			return res, fmt.Errorf("writing manifest: %w", err)
		}
		s.logger.Debug("wrote manifest", "path", t.Manifest, "version", version)
	}
	if versionChanged {
		if err := fsx.WriteFileAtomic(s.fs, t.VersionFile, versionData, versionFileMode); err != nil {
			return res, fmt.Errorf("writing version file: %w", err)
		}
		s.logger.Debug("wrote version file", "path", t.VersionFile, "version", version)
	}
	return res, nil
}

// warnIfDowngrade logs when a strict stamp moves the version backwards.
func (s *Stamper) warnIfDowngrade(t Target, previous, next string) {
	if !s.opts.Strict || previous == "" {
		return
	}
	cmp, err := semverx.Compare(next, previous)
	if err != nil || cmp >= 0 {
		return
	}
	s.logger.Warn("new version is lower than the current one",
		"target", t.DisplayName(), "current", previous, "version", next)
}

// Status is the version state of one target as found on disk.
type Status struct {
	Target          Target `json:"target"`
	ManifestVersion string `json:"manifest_version"`
	FileVersion     string `json:"file_version"`
	InSync          bool   `json:"in_sync"`
	// Leftovers lists temp files abandoned by an interrupted write next to
	// either artifact.
	Leftovers []string `json:"leftovers,omitempty"`
}

// Current reads both artifacts of t. A missing version file is reported with
// an empty FileVersion rather than an error, since a fresh integration may not
// have one yet.
func (s *Stamper) Current(ctx context.Context, t Target) (Status, error) {
	st := Status{Target: t}
	if err := ctx.Err(); err != nil {
		return st, err
	}

	m, err := manifest.Read(s.fs, t.Manifest)
	if err != nil {
		return st, err
	}
	st.ManifestVersion = m.Version

	data, err := afero.ReadFile(s.fs, t.VersionFile)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.logger.Debug("version file missing", "path", t.VersionFile)
	case err != nil:
		return st, fmt.Errorf("reading version file: %w", err)
	default:
		v, err := pyversion.Parse(data)
		if err != nil {
			return st, fmt.Errorf("%s: %w", t.VersionFile, err)
		}
		st.FileVersion = v
	}

	st.InSync = st.ManifestVersion != "" && st.ManifestVersion == st.FileVersion

	leftovers, err := s.leftovers(t)
	if err != nil {
		return st, err
	}
	if len(leftovers) > 0 {
		st.Leftovers = leftovers
		s.logger.Warn("temporary files left by an interrupted write", "target", t.DisplayName(), "files", leftovers)
	}
	return st, nil
}

// leftovers collects abandoned temp files from the directories of both
// artifacts, visiting a shared directory once.
func (s *Stamper) leftovers(t Target) ([]string, error) {
	var found []string
	dirs := []string{filepath.Dir(t.Manifest), filepath.Dir(t.VersionFile)}
	for i, dir := range dirs {
		if i > 0 && dir == dirs[0] {
			continue
		}
		files, err := fsx.Leftovers(s.fs, dir)
		if err != nil {
			return nil, err
		}
		found = append(found, files...)
	}
	return found, nil
}

// Verify is Current plus a check: it fails with apperr.ErrOutOfSync when the
// artifacts disagree, or when expect is non-empty and differs from them.
func (s *Stamper) Verify(ctx context.Context, t Target, expect string) (Status, error) {
	st, err := s.Current(ctx, t)
	if err != nil {
		return st, err
	}
	if !st.InSync {
		return st, fmt.Errorf("%w: manifest has %q, version file has %q",
			apperr.ErrOutOfSync, st.ManifestVersion, st.FileVersion)
	}
	if expect != "" && st.ManifestVersion != expect {
		st.InSync = false
		return st, fmt.Errorf("%w: expected %q, found %q",
			apperr.ErrOutOfSync, expect, st.ManifestVersion)
	}
	return st, nil
}
