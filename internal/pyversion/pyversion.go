// Package pyversion renders and parses the one-line Python module that
// exposes an integration's version as __version__.
package pyversion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tbckr/stamp/internal/apperr"
)

// Variable is the Python identifier assigned by the version file.
const Variable = "__version__"

var (
	escaper   = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	unescaper = strings.NewReplacer(`\\`, `\`, `\"`, `"`)

	assignRe = regexp.MustCompile(`^__version__\s*=\s*(?:"((?:[^"\\]|\\.)*)"|'((?:[^'\\]|\\.)*)')\s*(?:#.*)?$`)
)

// Render returns the full content of the version file for version.
func Render(version string) []byte {
	return []byte(fmt.Sprintf("%s = \"%s\"\n", Variable, escaper.Replace(version)))
}

// Parse extracts the version from the content of a version file. The first
// __version__ assignment wins; single- and double-quoted literals are accepted
// so hand-edited files still verify.
func Parse(data []byte) (string, error) {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		m := assignRe.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}
		if m[2] >= 0 {
			return unescaper.Replace(line[m[2]:m[3]]), nil
		}
		return strings.ReplaceAll(line[m[4]:m[5]], `\'`, `'`), nil
	}
	return "", fmt.Errorf("%w: no %s assignment found", apperr.ErrInvalidInput, Variable)
}
