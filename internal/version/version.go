package version

import (
	"strings"

	"github.com/fatih/color"
)

// Build metadata for the tsbridge CLI.
// These variables can be overridden at build time via -ldflags.

var (
	// Version is the plain semantic version.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var accent = color.New(color.FgCyan, color.Bold)

// Colored returns the version with the release core highlighted; the
// prerelease suffix stays plain.
func Colored() string {
	core, suffix, found := strings.Cut(Version, "-")
	out := accent.Sprint(core)
	if found {
		out += "-" + suffix
	}
	return out
}

// Full returns the version with commit and date suffixes when present.
func Full() string {
	out := Version
	if GitCommit != "" {
		out += " (" + GitCommit + ")"
	}
	if BuildDate != "" {
		out += " built " + BuildDate
	}
	return out
}
