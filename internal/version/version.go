package version

import (
	"fmt"
	"io"
	"runtime/debug"
	"strings"
	"sync"
)

// Build-time variables injected via -ldflags:
//
//	-X github.com/tbckr/stamp/internal/version.Version=1.0.0
//	-X github.com/tbckr/stamp/internal/version.Commit=abc1234
//	-X github.com/tbckr/stamp/internal/version.Date=2026-01-01
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the build metadata of the running binary.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// String renders i the way `stamp version` prints it.
func (i Info) String() string {
	return fmt.Sprintf("stamp version %s (commit: %s, built: %s)", i.Version, i.Commit, i.Date)
}

// WriteTable implements output.TableFormattable with the one-line summary.
func (i Info) WriteTable(w io.Writer) error {
	_, err := fmt.Fprintln(w, i.String())
	return err
}

// WritePlain implements output.PlainFormattable: the bare version.
func (i Info) WritePlain(w io.Writer) error {
	_, err := fmt.Fprintln(w, i.Version)
	return err
}

var once sync.Once

// Get returns the build metadata, consulting BuildInfo on first use.
func Get() Info {
	once.Do(func() {
		if bi, ok := debug.ReadBuildInfo(); ok {
			applyBuildInfo(bi)
		}
	})
	return Info{Version: Version, Commit: Commit, Date: Date}
}

// applyBuildInfo overwrites package vars from bi only when they still hold
// their default (ldflags-unset) values. ldflags always win.
func applyBuildInfo(bi *debug.BuildInfo) {
	if Version == "dev" {
		if v := bi.Main.Version; v != "" && v != "(devel)" {
			Version = strings.TrimPrefix(v, "v")
		}
	}

	settings := make(map[string]string, len(bi.Settings))
	for _, s := range bi.Settings {
		settings[s.Key] = s.Value
	}

	if rev := settings["vcs.revision"]; Commit == "none" && rev != "" {
		if len(rev) > 7 {
			rev = rev[:7]
		}
		if settings["vcs.modified"] == "true" {
			rev += "-dirty"
		}
		Commit = rev
	}

	if t := settings["vcs.time"]; Date == "unknown" && t != "" {
		Date = t
	}
}
