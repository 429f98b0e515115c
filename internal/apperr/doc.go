// Package apperr defines shared error sentinels for the stamp application.
// It is a leaf package with no internal imports, so low-level packages such
// as manifest and fsx can use the sentinels without creating import cycles.
package apperr
