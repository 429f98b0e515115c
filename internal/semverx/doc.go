// Package semverx validates version strings and computes the next release
// version for the bump command.
//
// Validation is strict semantic versioning as implemented by
// Masterminds/semver: "1.2.3", "1.2.3-beta.1" and "1.2.3+build.7" are
// accepted; "v1.2.3", "1.2" and free-form strings are rejected.
package semverx
