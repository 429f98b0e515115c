package semverx

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/tbckr/stamp/internal/apperr"
)

// Part selects which component of a version the bump command increments.
type Part int

const (
	// Patch increments the patch number: 1.2.3 → 1.2.4.
	Patch Part = iota
	// Minor increments the minor number and resets patch: 1.2.3 → 1.3.0.
	Minor
	// Major increments the major number and resets minor and patch: 1.2.3 → 2.0.0.
	Major
	// Prerelease advances the numeric prerelease counter: 1.2.4-beta.0 → 1.2.4-beta.1.
	// On a release version it moves to the next patch: 1.2.3 → 1.2.4-<id>.0.
	Prerelease
)

// Parts lists the valid part names in display order.
func Parts() []string {
	return []string{"major", "minor", "patch", "prerelease"}
}

// ParsePart converts a case-insensitive part name to a Part.
func ParsePart(s string) (Part, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "patch":
		return Patch, nil
	case "minor":
		return Minor, nil
	case "major":
		return Major, nil
	case "prerelease", "pre":
		return Prerelease, nil
	default:
		return Patch, fmt.Errorf("%w: unknown version part %q: must be one of %s",
			apperr.ErrInvalidInput, s, strings.Join(Parts(), ", "))
	}
}

// String returns the lowercase name of p.
func (p Part) String() string {
	switch p {
	case Patch:
		return "patch"
	case Minor:
		return "minor"
	case Major:
		return "major"
	case Prerelease:
		return "prerelease"
	default:
		return fmt.Sprintf("part(%d)", int(p))
	}
}

// Validate reports whether v is a strict semantic version.
func Validate(v string) error {
	if _, err := semver.StrictNewVersion(v); err != nil {
		return fmt.Errorf("%w: %q is not a semantic version: %v", apperr.ErrInvalidInput, v, err)
	}
	return nil
}

// Next returns the version following current for the given part. preID names
// the prerelease identifier used when Prerelease starts a new cycle; it
// defaults to "beta". Build metadata is always dropped.
func Next(current string, part Part, preID string) (string, error) {
	cur, err := semver.StrictNewVersion(current)
	if err != nil {
		return "", fmt.Errorf("%w: current version %q is not a semantic version: %v", apperr.ErrInvalidInput, current, err)
	}

	var next semver.Version
	switch part {
	case Patch:
		next = cur.IncPatch()
	case Minor:
		next = cur.IncMinor()
	case Major:
		next = cur.IncMajor()
	case Prerelease:
		out, err := nextPrerelease(cur, preID)
		if err != nil {
			return "", err
		}
		// preID is free-form input.
		if err := Validate(out); err != nil {
			return "", fmt.Errorf("prerelease identifier %q: %w", preID, err)
		}
		return out, nil
	default:
		return "", fmt.Errorf("%w: unsupported version part %s", apperr.ErrInvalidInput, part)
	}
	return next.String(), nil
}

func nextPrerelease(cur *semver.Version, preID string) (string, error) {
	if preID == "" {
		preID = "beta"
	}

	pre := cur.Prerelease()
	if pre == "" {
		base := cur.IncPatch()
		return fmt.Sprintf("%s-%s.0", base.String(), preID), nil
	}

	// Same identifier: bump the trailing counter, or append one.
	ids := strings.Split(pre, ".")
	if ids[0] == preID {
		last := ids[len(ids)-1]
		n, ok, err := parseCounter(last)
		if err != nil {
			return "", err
		}
		if ok && len(ids) > 1 {
			ids[len(ids)-1] = strconv.FormatUint(n+1, 10)
		} else {
			ids = append(ids, "0")
		}
		return fmt.Sprintf("%d.%d.%d-%s", cur.Major(), cur.Minor(), cur.Patch(), strings.Join(ids, ".")), nil
	}

	// Different identifier: restart the counter on the same core version.
	return fmt.Sprintf("%d.%d.%d-%s.0", cur.Major(), cur.Minor(), cur.Patch(), preID), nil
}

// parseCounter reports whether s is a numeric identifier and returns its
// value. A counter that cannot be incremented is an error.
func parseCounter(s string) (uint64, bool, error) {
	if s == "" || strings.Trim(s, "0123456789") != "" {
		return 0, false, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: prerelease counter %q: %v", apperr.ErrInvalidInput, s, err)
	}
	if n == math.MaxUint64 {
		return 0, false, fmt.Errorf("%w: prerelease counter %q cannot be incremented", apperr.ErrInvalidInput, s)
	}
	return n, true, nil
}

// Compare returns -1, 0 or 1 when a is lower than, equal to or greater than b.
// Both must be semantic versions.
func Compare(a, b string) (int, error) {
	va, err := semver.NewVersion(a)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", apperr.ErrInvalidInput, a, err)
	}
	vb, err := semver.NewVersion(b)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", apperr.ErrInvalidInput, b, err)
	}
	return va.Compare(vb), nil
}
