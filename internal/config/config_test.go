package config_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/stamp/internal/config"
	"github.com/tbckr/stamp/internal/stamp"
)

// newTestFlags registers all config flags on a fresh FlagSet, then parses args.
func newTestFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func newRepo(t *testing.T, cfgYAML string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/repo/.git", 0o755))
	require.NoError(t, fsys.MkdirAll("/repo/custom_components/blitzortung", 0o755))
	if cfgYAML != "" {
		require.NoError(t, afero.WriteFile(fsys, "/repo/.stamp.yaml", []byte(cfgYAML), 0o644))
	}
	return fsys
}

func TestLoad_Defaults(t *testing.T) {
	fsys := newRepo(t, "")

	cfg, err := config.Load(fsys, newTestFlags(t), "/repo/custom_components/blitzortung")
	require.NoError(t, err)
	assert.Equal(t, "/repo", cfg.Root)
	assert.Equal(t, "/repo/.stamp.yaml", cfg.ConfigFile)
	assert.Equal(t, config.DefaultManifest, cfg.Manifest)
	assert.Equal(t, config.DefaultVersionFile, cfg.VersionFile)
	assert.False(t, cfg.Strict)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, "table", cfg.Output)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 4, cfg.Concurrency)

	assert.Equal(t, []stamp.Target{{
		Manifest:    "/repo/custom_components/blitzortung/manifest.json",
		VersionFile: "/repo/custom_components/blitzortung/version.py",
	}}, cfg.ResolveTargets())
}

func TestLoad_Flags(t *testing.T) {
	fsys := newRepo(t, "")

	cfg, err := config.Load(fsys, newTestFlags(t,
		"--strict", "--dry-run", "-o", "json", "-v", "--log-format=pretty", "-c", "2",
	), "/repo")
	require.NoError(t, err)
	assert.True(t, cfg.Strict)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "json", cfg.Output)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "pretty", cfg.LogFormat)
	assert.Equal(t, 2, cfg.Concurrency)
}

func TestLoad_ConfigFileValues(t *testing.T) {
	fsys := newRepo(t, "strict: true\noutput: plain\nconcurrency: 8\nmanifest: integration/manifest.json\nversion_file: integration/version.py\n")

	cfg, err := config.Load(fsys, newTestFlags(t), "/repo")
	require.NoError(t, err)
	assert.True(t, cfg.Strict)
	assert.Equal(t, "plain", cfg.Output)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, []stamp.Target{{
		Manifest:    "/repo/integration/manifest.json",
		VersionFile: "/repo/integration/version.py",
	}}, cfg.ResolveTargets())
}

func TestLoad_FlagBeatsFile(t *testing.T) {
	fsys := newRepo(t, "output: plain\n")

	cfg, err := config.Load(fsys, newTestFlags(t, "--output=json"), "/repo")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	t.Setenv("STAMP_OUTPUT", "json")
	t.Setenv("STAMP_STRICT", "true")
	fsys := newRepo(t, "output: plain\n")

	cfg, err := config.Load(fsys, newTestFlags(t), "/repo")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output)
	assert.True(t, cfg.Strict)
}

func TestLoad_TargetsList(t *testing.T) {
	fsys := newRepo(t, `targets:
  - name: blitzortung
    manifest: custom_components/blitzortung/manifest.json
    version_file: custom_components/blitzortung/version.py
  - name: legacy
    manifest: /abs/custom_component/blitzortung/manifest.json
    version_file: custom_component/blitzortung/version.py
`)

	cfg, err := config.Load(fsys, newTestFlags(t), "/repo")
	require.NoError(t, err)
	assert.Equal(t, []stamp.Target{
		{
			Name:        "blitzortung",
			Manifest:    "/repo/custom_components/blitzortung/manifest.json",
			VersionFile: "/repo/custom_components/blitzortung/version.py",
		},
		{
			Name:        "legacy",
			Manifest:    "/abs/custom_component/blitzortung/manifest.json",
			VersionFile: "/repo/custom_component/blitzortung/version.py",
		},
	}, cfg.ResolveTargets())
}

func TestLoad_FlagPairOverridesTargetsList(t *testing.T) {
	fsys := newRepo(t, "targets:\n  - manifest: a/manifest.json\n    version_file: a/version.py\n")

	cfg, err := config.Load(fsys, newTestFlags(t, "--manifest=b/manifest.json"), "/repo")
	require.NoError(t, err)
	assert.Equal(t, []stamp.Target{{
		Manifest:    "/repo/b/manifest.json",
		VersionFile: "/repo/" + config.DefaultVersionFile,
	}}, cfg.ResolveTargets())
}

func TestLoad_EmptyTargetPathStaysEmpty(t *testing.T) {
	fsys := newRepo(t, "targets:\n  - manifest: a/manifest.json\n")

	cfg, err := config.Load(fsys, newTestFlags(t), "/repo")
	require.NoError(t, err)
	targets := cfg.ResolveTargets()
	require.Len(t, targets, 1)
	assert.Empty(t, targets[0].VersionFile)
	require.Error(t, stamp.ValidateTargets(targets))
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	fsys := newRepo(t, "")
	require.NoError(t, afero.WriteFile(fsys, "/elsewhere/release.yaml", []byte("strict: true\n"), 0o644))

	cfg, err := config.Load(fsys, newTestFlags(t, "--config=/elsewhere/release.yaml"), "/repo")
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere", cfg.Root)
	assert.True(t, cfg.Strict)
}

func TestLoad_ExplicitConfigFileMissing(t *testing.T) {
	fsys := newRepo(t, "")

	_, err := config.Load(fsys, newTestFlags(t, "--config=/nope.yaml"), "/repo")
	require.Error(t, err)
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	fsys := newRepo(t, "strict: [\n")

	_, err := config.Load(fsys, newTestFlags(t), "/repo")
	require.Error(t, err)
}

func TestValidateKey(t *testing.T) {
	t.Run("valid_underscore", func(t *testing.T) {
		require.NoError(t, config.ValidateKey("version_file"))
	})
	t.Run("valid_hyphen", func(t *testing.T) {
		require.NoError(t, config.ValidateKey("log-format"))
	})
	t.Run("all_keys", func(t *testing.T) {
		for _, k := range config.ValidKeys() {
			require.NoError(t, config.ValidateKey(k), "key %q should be valid", k)
		}
	})
	t.Run("flag_only", func(t *testing.T) {
		require.ErrorIs(t, config.ValidateKey("dry_run"), config.ErrUnknownKey)
	})
	t.Run("unknown", func(t *testing.T) {
		require.ErrorIs(t, config.ValidateKey("does_not_exist"), config.ErrUnknownKey)
	})
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		want    any
		wantErr bool
	}{
		{key: "strict", value: "true", want: true},
		{key: "verbose", value: "0", want: false},
		{key: "strict", value: "yes", wantErr: true},
		{key: "concurrency", value: "5", want: 5},
		{key: "concurrency", value: "0", wantErr: true},
		{key: "concurrency", value: "abc", wantErr: true},
		{key: "output", value: "json", want: "json"},
		{key: "output", value: "xml", wantErr: true},
		{key: "log-format", value: "pretty", want: "pretty"},
		{key: "log_format", value: "logfmt", wantErr: true},
		{key: "manifest", value: "x/manifest.json", want: "x/manifest.json"},
		{key: "version-file", value: " ", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.key+"/"+tc.value, func(t *testing.T) {
			got, err := config.ParseValue(tc.key, tc.value)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseValue_UnknownKey(t *testing.T) {
	_, err := config.ParseValue("nonexistent", "value")
	require.ErrorIs(t, err, config.ErrUnknownKey)
}

func TestKeyCompletions(t *testing.T) {
	assert.Equal(t, []string{"true", "false"}, config.KeyCompletions("strict"))
	assert.Equal(t, []string{"table", "json", "plain"}, config.KeyCompletions("output"))
	assert.Nil(t, config.KeyCompletions("manifest"))
	assert.Nil(t, config.KeyCompletions("nope"))
}

func TestValue(t *testing.T) {
	cfg := &config.Config{Manifest: "m.json", VersionFile: "v.py", Strict: true, Output: "json", LogFormat: "text", Concurrency: 3}
	for key, want := range map[string]string{
		"manifest":     "m.json",
		"version-file": "v.py",
		"strict":       "true",
		"verbose":      "false",
		"output":       "json",
		"log_format":   "text",
		"concurrency":  "3",
	} {
		got, err := cfg.Value(key)
		require.NoError(t, err)
		assert.Equal(t, want, got, key)
	}
	_, err := cfg.Value("targets")
	require.ErrorIs(t, err, config.ErrUnknownKey)
}
