// Package config resolves stamp's settings from flags, STAMP_* environment
// variables and the project's .stamp.yaml, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tbckr/stamp/internal/projdir"
	"github.com/tbckr/stamp/internal/stamp"
)

// Default integration layout of the Blitzortung Home Assistant component.
const (
	DefaultManifest    = "custom_components/blitzortung/manifest.json"
	DefaultVersionFile = "custom_components/blitzortung/version.py"
	DefaultOutput      = "table"
	DefaultLogFormat   = "text"
	DefaultConcurrency = 4
)

// EnvPrefix prefixes every environment variable override, e.g. STAMP_STRICT.
const EnvPrefix = "STAMP"

// ErrUnknownKey is returned for config keys stamp does not know.
var ErrUnknownKey = errors.New("unknown config key")

// Config is the fully resolved configuration for one invocation.
type Config struct {
	// ConfigFile is the path of the project config file, which may not exist.
	ConfigFile string
	// Root is the project root that relative paths resolve against.
	Root string

	Manifest    string         `mapstructure:"manifest"`
	VersionFile string         `mapstructure:"version_file"`
	Targets     []TargetConfig `mapstructure:"targets"`
	Strict      bool           `mapstructure:"strict"`
	DryRun      bool           `mapstructure:"dry_run"`
	Output      string         `mapstructure:"output"`
	Verbose     bool           `mapstructure:"verbose"`
	LogFormat   string         `mapstructure:"log_format"`
	Concurrency int            `mapstructure:"concurrency"`

	// pairOverridden is set when --manifest or --version-file was given on
	// the command line; the flag pair then replaces the targets list.
	pairOverridden bool
}

// TargetConfig is one entry of the targets list in .stamp.yaml.
type TargetConfig struct {
	Name        string `mapstructure:"name" yaml:"name,omitempty"`
	Manifest    string `mapstructure:"manifest" yaml:"manifest"`
	VersionFile string `mapstructure:"version_file" yaml:"version_file"`
}

// flagKeys maps flag names to viper keys.
var flagKeys = map[string]string{
	"manifest":     "manifest",
	"version-file": "version_file",
	"strict":       "strict",
	"dry-run":      "dry_run",
	"output":       "output",
	"verbose":      "verbose",
	"log-format":   "log_format",
	"concurrency":  "concurrency",
}

// RegisterFlags adds every config-backed flag to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "config file (default: <project root>/"+projdir.ConfigFileName+")")
	flags.String("manifest", DefaultManifest, "path of the integration manifest, relative to the project root")
	flags.String("version-file", DefaultVersionFile, "path of the generated version file, relative to the project root")
	flags.Bool("strict", false, "require a semantic version")
	flags.Bool("dry-run", false, "show what would change without writing files")
	flags.StringP("output", "o", DefaultOutput, "output format: table, json, plain")
	flags.BoolP("verbose", "v", false, "enable verbose logging (debug level)")
	flags.String("log-format", DefaultLogFormat, "log format: text, json, pretty")
	flags.IntP("concurrency", "c", DefaultConcurrency, "number of targets processed in parallel")
}

// Location is where the project config file lives.
type Location struct {
	// File is the config file path, which may not exist.
	File string
	// Root is the project root that relative paths resolve against.
	Root string
	// Explicit is set when File came from --config.
	Explicit bool
}

// Locate finds the config file without reading it: --config when given,
// otherwise .stamp.yaml in the project root found from cwd.
func Locate(fsys afero.Fs, flags *pflag.FlagSet, cwd string) (Location, error) {
	cfgFile, err := flags.GetString("config")
	if err != nil {
		return Location{}, fmt.Errorf("reading --config: %w", err)
	}
	if cfgFile != "" {
		cfgFile, err = filepath.Abs(cfgFile)
		if err != nil {
			return Location{}, fmt.Errorf("resolving config path: %w", err)
		}
		return Location{File: cfgFile, Root: filepath.Dir(cfgFile), Explicit: true}, nil
	}
	root, err := projdir.Find(fsys, cwd)
	if err != nil {
		return Location{}, fmt.Errorf("finding project root: %w", err)
	}
	return Location{File: filepath.Join(root, projdir.ConfigFileName), Root: root}, nil
}

// Load resolves the configuration. cwd is where the project root search
// starts; fsys is the filesystem holding the config file.
func Load(fsys afero.Fs, flags *pflag.FlagSet, cwd string) (*Config, error) {
	loc, err := Locate(fsys, flags, cwd)
	if err != nil {
		return nil, err
	}
	cfgFile := loc.File

	v := viper.New()
	v.SetFs(fsys)
	v.SetConfigFile(cfgFile)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	for flagName, key := range flagKeys {
		if f := flags.Lookup(flagName); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("binding --%s: %w", flagName, err)
			}
		}
	}

	found, err := afero.Exists(fsys, cfgFile)
	if err != nil {
		return nil, fmt.Errorf("checking config file: %w", err)
	}
	switch {
	case found:
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	case loc.Explicit:
		return nil, fmt.Errorf("config file %s does not exist", cfgFile)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.ConfigFile = cfgFile
	cfg.Root = loc.Root
	cfg.pairOverridden = changed(flags, "manifest") || changed(flags, "version-file")
	return cfg, nil
}

// setDefaults configures viper defaults matching the flag defaults.
func setDefaults(v *viper.Viper) {
	v.SetDefault("manifest", DefaultManifest)
	v.SetDefault("version_file", DefaultVersionFile)
	v.SetDefault("strict", false)
	v.SetDefault("dry_run", false)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("verbose", false)
	v.SetDefault("log_format", DefaultLogFormat)
	v.SetDefault("concurrency", DefaultConcurrency)
}

func changed(flags *pflag.FlagSet, name string) bool {
	f := flags.Lookup(name)
	return f != nil && f.Changed
}

// ResolveTargets returns the targets to operate on with paths resolved against
// Root. The --manifest/--version-file pair wins when given on the command line;
// otherwise the targets list from the config file is used, falling back to the
// single manifest/version_file pair.
func (c *Config) ResolveTargets() []stamp.Target {
	if len(c.Targets) == 0 || c.pairOverridden {
		return []stamp.Target{{
			Manifest:    c.resolve(c.Manifest),
			VersionFile: c.resolve(c.VersionFile),
		}}
	}
	targets := make([]stamp.Target, len(c.Targets))
	for i, t := range c.Targets {
		targets[i] = stamp.Target{
			Name:        t.Name,
			Manifest:    c.resolve(t.Manifest),
			VersionFile: c.resolve(t.VersionFile),
		}
	}
	return targets
}

// resolve keeps empty paths empty so target validation can reject them.
func (c *Config) resolve(p string) string {
	if strings.TrimSpace(p) == "" {
		return ""
	}
	return projdir.Resolve(c.Root, p)
}
