package stamp

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tbckr/stamp/internal/apperr"
)

// Target is one manifest and version file pair stamped together.
type Target struct {
	Name        string `json:"name"`
	Manifest    string `json:"manifest"`
	VersionFile string `json:"version_file"`
}

// DisplayName returns Name, or the manifest's directory name when Name is unset.
func (t Target) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return filepath.Base(filepath.Dir(t.Manifest))
}

// ValidateTargets rejects empty paths and any file shared between targets.
// Concurrent stamping relies on every file having exactly one writer.
func ValidateTargets(targets []Target) error {
	if len(targets) == 0 {
		return fmt.Errorf("%w: no targets configured", apperr.ErrInvalidInput)
	}
	seen := make(map[string]string, 2*len(targets))
	for i, t := range targets {
		if strings.TrimSpace(t.Manifest) == "" {
			return fmt.Errorf("%w: target %d: manifest path is empty", apperr.ErrInvalidInput, i)
		}
		if strings.TrimSpace(t.VersionFile) == "" {
			return fmt.Errorf("%w: target %d: version file path is empty", apperr.ErrInvalidInput, i)
		}
		for _, p := range []string{t.Manifest, t.VersionFile} {
			clean := filepath.Clean(p)
			if owner, ok := seen[clean]; ok {
				return fmt.Errorf("%w: %s is used by both %s and %s", apperr.ErrInvalidInput, clean, owner, t.DisplayName())
			}
			seen[clean] = t.DisplayName()
		}
	}
	return nil
}
