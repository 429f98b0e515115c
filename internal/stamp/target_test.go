package stamp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/stamp/internal/apperr"
	"github.com/tbckr/stamp/internal/stamp"
)

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "named", stamp.Target{Name: "named", Manifest: "/a/b/manifest.json"}.DisplayName())
	assert.Equal(t, "blitzortung", stamp.Target{Manifest: "/repo/custom_components/blitzortung/manifest.json"}.DisplayName())
}

func TestValidateTargets(t *testing.T) {
	tests := []struct {
		name    string
		targets []stamp.Target
		wantErr bool
	}{
		{"none", nil, true},
		{"single", []stamp.Target{{Manifest: "a/manifest.json", VersionFile: "a/version.py"}}, false},
		{"empty manifest", []stamp.Target{{VersionFile: "a/version.py"}}, true},
		{"empty version file", []stamp.Target{{Manifest: "a/manifest.json"}}, true},
		{"distinct", []stamp.Target{
			{Manifest: "a/manifest.json", VersionFile: "a/version.py"},
			{Manifest: "b/manifest.json", VersionFile: "b/version.py"},
		}, false},
		{"shared version file", []stamp.Target{
			{Manifest: "a/manifest.json", VersionFile: "version.py"},
			{Manifest: "b/manifest.json", VersionFile: "./version.py"},
		}, true},
		{"manifest doubles as version file", []stamp.Target{
			{Manifest: "a/manifest.json", VersionFile: "a/manifest.json"},
		}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := stamp.ValidateTargets(tc.targets)
			if tc.wantErr {
				require.ErrorIs(t, err, apperr.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
		})
	}
}
