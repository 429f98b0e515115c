package stamp_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/stamp/internal/apperr"
	"github.com/tbckr/stamp/internal/fsx"
	"github.com/tbckr/stamp/internal/stamp"
	"github.com/tbckr/stamp/internal/testutil"
)

const integrationDir = "/repo/custom_components/blitzortung"

func newTarget(t *testing.T, fsys afero.Fs, manifestBody, fileVersion string) stamp.Target {
	t.Helper()
	m, v := testutil.WriteIntegration(t, fsys, integrationDir, manifestBody, fileVersion)
	return stamp.Target{Manifest: m, VersionFile: v}
}

func manifestVersion(t *testing.T, fsys afero.Fs, p string) string {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(testutil.ReadString(t, fsys, p)), &doc))
	v, _ := doc["version"].(string)
	return v
}

func TestStamp_WritesBothArtifacts(t *testing.T) {
	fsys := afero.NewMemMapFs()
	target := newTarget(t, fsys, testutil.Manifest, "1.0.0")
	s := stamp.New(fsys, testutil.NopLogger(), stamp.Options{})

	res, err := s.Stamp(context.Background(), target, "1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", res.Previous)
	assert.Equal(t, "1.2.3", res.Version)
	assert.True(t, res.Changed)

	assert.Equal(t, "1.2.3", manifestVersion(t, fsys, target.Manifest))
	assert.Equal(t, "__version__ = \"1.2.3\"\n", testutil.ReadString(t, fsys, target.VersionFile))
	assert.Equal(t, strings.Replace(testutil.Manifest, `"version": "1.0.0"`, `"version": "1.2.3"`, 1),
		testutil.ReadString(t, fsys, target.Manifest))

	left, err := fsx.Leftovers(fsys, integrationDir)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestStamp_CreatesMissingVersionFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	target := newTarget(t, fsys, testutil.Manifest, "")
	s := stamp.New(fsys, testutil.NopLogger(), stamp.Options{})

	_, err := s.Stamp(context.Background(), target, "0.1.0")
	require.NoError(t, err)
	assert.Equal(t, "__version__ = \"0.1.0\"\n", testutil.ReadString(t, fsys, target.VersionFile))
}

func TestStamp_Idempotent(t *testing.T) {
	fsys := afero.NewMemMapFs()
	target := newTarget(t, fsys, testutil.Manifest, "1.0.0")
	s := stamp.New(fsys, testutil.NopLogger(), stamp.Options{})

	_, err := s.Stamp(context.Background(), target, "2.0.0")
	require.NoError(t, err)
	manifestOnce := testutil.ReadString(t, fsys, target.Manifest)
	versionOnce := testutil.ReadString(t, fsys, target.VersionFile)

	res, err := s.Stamp(context.Background(), target, "2.0.0")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, "2.0.0", res.Previous)
	assert.Equal(t, manifestOnce, testutil.ReadString(t, fsys, target.Manifest))
	assert.Equal(t, versionOnce, testutil.ReadString(t, fsys, target.VersionFile))
}

func TestStamp_AnyVersionWithoutStrict(t *testing.T) {
	for _, v := range []string{"1.2.3", "v2", "2025.10.1", "nightly", `we"ird`} {
		t.Run(v, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			target := newTarget(t, fsys, testutil.Manifest, "1.0.0")
			s := stamp.New(fsys, testutil.NopLogger(), stamp.Options{})

			_, err := s.Stamp(context.Background(), target, v)
			require.NoError(t, err)
			assert.Equal(t, v, manifestVersion(t, fsys, target.Manifest))

			st, err := s.Verify(context.Background(), target, v)
			require.NoError(t, err)
			assert.True(t, st.InSync)
		})
	}
}

func TestStamp_RejectsInvalidVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		strict  bool
	}{
		{"empty", "", false},
		{"multi-line", "1.2.3\n1.2.4", false},
		{"invalid utf-8", "1.2.3\xff", false},
		{"nul byte", "1.2.3\x00", false},
		{"escape sequence", "1.2.3\x1b[31m", false},
		{"strict rejects free-form", "not-a-version", true},
		{"strict rejects v prefix", "v1.2.3", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			target := newTarget(t, fsys, testutil.Manifest, "1.0.0")
			s := stamp.New(fsys, testutil.NopLogger(), stamp.Options{Strict: tc.strict})

			_, err := s.Stamp(context.Background(), target, tc.version)
			require.ErrorIs(t, err, apperr.ErrInvalidInput)
			assert.Equal(t, testutil.Manifest, testutil.ReadString(t, fsys, target.Manifest))
		})
	}
}

func TestStamp_StrictAcceptsPrerelease(t *testing.T) {
	fsys := afero.NewMemMapFs()
	target := newTarget(t, fsys, testutil.Manifest, "1.0.0")
	s := stamp.New(fsys, testutil.NopLogger(), stamp.Options{Strict: true})

	_, err := s.Stamp(context.Background(), target, "1.2.3-beta.1")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3-beta.1", manifestVersion(t, fsys, target.Manifest))
}

func TestStamp_MalformedManifestWritesNothing(t *testing.T) {
	fsys := afero.NewMemMapFs()
	target := newTarget(t, fsys, `{"version": "1.0.0",`, "1.0.0")
	s := stamp.New(fsys, testutil.NopLogger(), stamp.Options{})

	_, err := s.Stamp(context.Background(), target, "1.2.3")
	require.ErrorIs(t, err, apperr.ErrManifest)
	assert.Equal(t, `{"version": "1.0.0",`, testutil.ReadString(t, fsys, target.Manifest))
	assert.Equal(t, "__version__ = \"1.0.0\"\n", testutil.ReadString(t, fsys, target.VersionFile))
}

func TestStamp_MissingManifest(t *testing.T) {
	fsys := afero.NewMemMapFs()
	s := stamp.New(fsys, testutil.NopLogger(), stamp.Options{})

	_, err := s.Stamp(context.Background(), stamp.Target{Manifest: "/nope/manifest.json", VersionFile: "/nope/version.py"}, "1.2.3")
	require.Error(t, err)

	exists, err := afero.Exists(fsys, "/nope/version.py")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStamp_DryRun(t *testing.T) {
	fsys := afero.NewMemMapFs()
	target := newTarget(t, fsys, testutil.Manifest, "1.0.0")
	s := stamp.New(fsys, testutil.NopLogger(), stamp.Options{DryRun: true})

	res, err := s.Stamp(context.Background(), target, "9.9.9")
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.True(t, res.Changed)
	assert.Equal(t, testutil.Manifest, testutil.ReadString(t, fsys, target.Manifest))
	assert.Equal(t, "__version__ = \"1.0.0\"\n", testutil.ReadString(t, fsys, target.VersionFile))
}

func TestStamp_ReadOnlyFilesystem(t *testing.T) {
	base := afero.NewMemMapFs()
	target := newTarget(t, base, testutil.Manifest, "1.0.0")
	s := stamp.New(afero.NewReadOnlyFs(base), testutil.NopLogger(), stamp.Options{})

	_, err := s.Stamp(context.Background(), target, "1.2.3")
	require.Error(t, err)
	assert.Equal(t, testutil.Manifest, testutil.ReadString(t, base, target.Manifest))
}

func TestStamp_CanceledContext(t *testing.T) {
	fsys := afero.NewMemMapFs()
	target := newTarget(t, fsys, testutil.Manifest, "1.0.0")
	s := stamp.New(fsys, testutil.NopLogger(), stamp.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Stamp(ctx, target, "1.2.3")
	require.ErrorIs(t, err, context.Canceled)
}

func TestCurrent(t *testing.T) {
	tests := []struct {
		name        string
		fileVersion string
		wantFile    string
		wantInSync  bool
	}{
		{"in sync", "1.0.0", "1.0.0", true},
		{"out of sync", "0.9.0", "0.9.0", false},
		{"no version file", "", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			target := newTarget(t, fsys, testutil.Manifest, tc.fileVersion)
			s := stamp.New(fsys, testutil.NopLogger(), stamp.Options{})

			st, err := s.Current(context.Background(), target)
			require.NoError(t, err)
			assert.Equal(t, "1.0.0", st.ManifestVersion)
			assert.Equal(t, tc.wantFile, st.FileVersion)
			assert.Equal(t, tc.wantInSync, st.InSync)
		})
	}
}

func TestCurrent_UnparsableVersionFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	target := newTarget(t, fsys, testutil.Manifest, "")
	require.NoError(t, afero.WriteFile(fsys, target.VersionFile, []byte("VERSION = 1\n"), 0o644))
	s := stamp.New(fsys, testutil.NopLogger(), stamp.Options{})

	_, err := s.Current(context.Background(), target)
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestCurrent_ReportsLeftoverTempFiles(t *testing.T) {
	fsys := afero.NewMemMapFs()
	target := newTarget(t, fsys, testutil.Manifest, "1.0.0")
	leftover := integrationDir + "/.stamp-123.tmp"
	require.NoError(t, afero.WriteFile(fsys, leftover, []byte("partial"), 0o644))
	s := stamp.New(fsys, testutil.NopLogger(), stamp.Options{})

	st, err := s.Current(context.Background(), target)
	require.NoError(t, err)
	assert.True(t, st.InSync)
	assert.Equal(t, []string{leftover}, st.Leftovers)

	require.NoError(t, fsys.Remove(leftover))
	st, err = s.Current(context.Background(), target)
	require.NoError(t, err)
	assert.Empty(t, st.Leftovers)
}

func TestVerify(t *testing.T) {
	fsys := afero.NewMemMapFs()
	target := newTarget(t, fsys, testutil.Manifest, "0.9.0")
	s := stamp.New(fsys, testutil.NopLogger(), stamp.Options{})

	_, err := s.Verify(context.Background(), target, "")
	require.ErrorIs(t, err, apperr.ErrOutOfSync)

	_, err = s.Stamp(context.Background(), target, "1.0.0")
	require.NoError(t, err)

	st, err := s.Verify(context.Background(), target, "")
	require.NoError(t, err)
	assert.True(t, st.InSync)

	st, err = s.Verify(context.Background(), target, "1.0.1")
	require.ErrorIs(t, err, apperr.ErrOutOfSync)
	assert.False(t, st.InSync)
}
