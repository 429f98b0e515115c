package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tbckr/stamp/internal/log"
	"github.com/tbckr/stamp/internal/output"
)

// keyKind describes how a persisted value is parsed.
type keyKind int

const (
	kindString keyKind = iota
	kindBool
	kindInt
)

// keySpec lists the keys `stamp config set` may persist. targets is edited by
// hand since it is a list; dry_run is a per-invocation flag.
var keySpec = map[string]struct {
	kind    keyKind
	choices func() []string
}{
	"manifest":     {kind: kindString},
	"version_file": {kind: kindString},
	"strict":       {kind: kindBool},
	"output":       {kind: kindString, choices: output.Formats},
	"verbose":      {kind: kindBool},
	"log_format":   {kind: kindString, choices: log.Formats},
	"concurrency":  {kind: kindInt},
}

// NormalizeKey converts hyphenated flag names to their config key
// equivalents (e.g. "version-file" → "version_file").
func NormalizeKey(key string) string {
	return strings.ReplaceAll(strings.TrimSpace(key), "-", "_")
}

// ValidKeys returns the persistable config keys, sorted.
func ValidKeys() []string {
	keys := make([]string, 0, len(keySpec))
	for k := range keySpec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidateKey returns ErrUnknownKey unless key (or its hyphenated form) is persistable.
func ValidateKey(key string) error {
	if _, ok := keySpec[NormalizeKey(key)]; !ok {
		return fmt.Errorf("%w %q: valid keys are %s", ErrUnknownKey, key, strings.Join(ValidKeys(), ", "))
	}
	return nil
}

// ParseValue converts raw into the typed value stored for key, rejecting
// values the corresponding flag would reject.
func ParseValue(key, raw string) (any, error) {
	key = NormalizeKey(key)
	spec, ok := keySpec[key]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownKey, key)
	}

	switch spec.kind {
	case kindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q for %s: must be true or false", raw, key)
		}
		return b, nil
	case kindInt:
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid value %q for %s: must be a positive integer", raw, key)
		}
		return n, nil
	default:
		if spec.choices != nil {
			for _, c := range spec.choices() {
				if raw == c {
					return raw, nil
				}
			}
			return nil, fmt.Errorf("invalid value %q for %s: must be one of %s", raw, key, strings.Join(spec.choices(), ", "))
		}
		if strings.TrimSpace(raw) == "" {
			return nil, fmt.Errorf("invalid value for %s: must not be empty", key)
		}
		return raw, nil
	}
}

// KeyCompletions returns value completions for key, or nil for free-form keys.
func KeyCompletions(key string) []string {
	spec, ok := keySpec[NormalizeKey(key)]
	if !ok {
		return nil
	}
	switch {
	case spec.kind == kindBool:
		return []string{"true", "false"}
	case spec.choices != nil:
		return spec.choices()
	default:
		return nil
	}
}

// Value returns the effective value of key as a string.
func (c *Config) Value(key string) (string, error) {
	switch NormalizeKey(key) {
	case "manifest":
		return c.Manifest, nil
	case "version_file":
		return c.VersionFile, nil
	case "strict":
		return strconv.FormatBool(c.Strict), nil
	case "output":
		return c.Output, nil
	case "verbose":
		return strconv.FormatBool(c.Verbose), nil
	case "log_format":
		return c.LogFormat, nil
	case "concurrency":
		return strconv.Itoa(c.Concurrency), nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
}
