// Package testutil provides shared test helpers for stamp's packages.
package testutil

import (
	"io"
	"log/slog"
	"path"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// Manifest is a representative integration manifest used as a fixture.
const Manifest = `{
  "domain": "blitzortung",
  "name": "Blitzortung",
  "codeowners": ["@mrk-its"],
  "config_flow": true,
  "documentation": "https://github.com/mrk-its/homeassistant-blitzortung",
  "iot_class": "cloud_push",
  "issue_tracker": "https://github.com/mrk-its/homeassistant-blitzortung/issues",
  "requirements": ["paho-mqtt>=1.5.0"],
  "version": "1.0.0"
}
`

// NopLogger returns a logger that discards all output.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WriteIntegration creates dir/manifest.json with manifestBody and, when
// fileVersion is non-empty, dir/version.py assigning it. It returns both paths.
func WriteIntegration(t *testing.T, fsys afero.Fs, dir, manifestBody, fileVersion string) (manifestPath, versionPath string) {
	t.Helper()
	manifestPath = path.Join(dir, "manifest.json")
	versionPath = path.Join(dir, "version.py")

	require.NoError(t, fsys.MkdirAll(dir, 0o755))
	require.NoError(t, afero.WriteFile(fsys, manifestPath, []byte(manifestBody), 0o644))
	if fileVersion != "" {
		require.NoError(t, afero.WriteFile(fsys, versionPath, []byte("__version__ = \""+fileVersion+"\"\n"), 0o644))
	}
	return manifestPath, versionPath
}

// ReadString reads path from fsys and fails the test on error.
func ReadString(t *testing.T, fsys afero.Fs, p string) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, p)
	require.NoError(t, err)
	return string(data)
}
