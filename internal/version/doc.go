// Package version reports the build of the stamp binary itself (not the
// versions stamp writes). Values come from -ldflags; when those are unset, as
// with go install, runtime/debug.BuildInfo fills them in.
package version
