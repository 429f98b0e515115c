package apperr

import "errors"

// ErrInvalidInput is returned when a version string or flag value fails validation.
// Use errors.Is(err, apperr.ErrInvalidInput) to detect validation failures uniformly.
var ErrInvalidInput = errors.New("invalid input")

// ErrManifest is returned when a manifest file is not a JSON object or its
// version key cannot be read or replaced.
var ErrManifest = errors.New("invalid manifest")

// ErrOutOfSync is returned by verify when a target's manifest and version file
// disagree, or do not match the expected version.
var ErrOutOfSync = errors.New("versions out of sync")
