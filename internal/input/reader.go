// Package input reads a version string piped on stdin.
package input

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/tbckr/stamp/internal/apperr"
)

// ReadVersion reads r and returns its single non-blank line, trimmed. A
// leading "v" is kept as-is; the caller decides whether it is acceptable.
// Zero or several non-blank lines are rejected so that a mistaken pipe never
// stamps a partial value.
func ReadVersion(r io.Reader) (string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading version from stdin: %w", err)
	}

	switch len(lines) {
	case 0:
		return "", fmt.Errorf("%w: no version on stdin", apperr.ErrInvalidInput)
	case 1:
		return lines[0], nil
	default:
		return "", fmt.Errorf("%w: expected one version on stdin, got %d lines", apperr.ErrInvalidInput, len(lines))
	}
}
