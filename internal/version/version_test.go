package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestVersion_DefaultValue(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
	if strings.ContainsRune(Version, 0x1b) {
		t.Errorf("default version %q carries escape codes", Version)
	}
}

func TestVersion_CanBeOverridden(t *testing.T) {
	origVersion := Version
	origGitCommit := GitCommit
	origBuildDate := BuildDate
	defer func() {
		Version = origVersion
		GitCommit = origGitCommit
		BuildDate = origBuildDate
	}()

	// Simulate build-time ldflags.
	Version = "1.2.3"
	GitCommit = "abc123def456"
	BuildDate = "2026-08-30T10:30:00Z"

	if Version != "1.2.3" {
		t.Errorf("Version = %q, want %q", Version, "1.2.3")
	}
	if GitCommit != "abc123def456" {
		t.Errorf("GitCommit = %q, want %q", GitCommit, "abc123def456")
	}
	if BuildDate != "2026-08-30T10:30:00Z" {
		t.Errorf("BuildDate = %q, want %q", BuildDate, "2026-08-30T10:30:00Z")
	}
}

func TestColorize(t *testing.T) {
	origNoColor := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = origNoColor }()

	// With color disabled the parts reassemble verbatim.
	if got := Colorize("1.2.3-rc1"); got != "1.2.3-rc1" {
		t.Errorf("Colorize = %q", got)
	}
	// Non-semver strings pass through untouched.
	if got := Colorize("dev"); got != "dev" {
		t.Errorf("Colorize(dev) = %q", got)
	}
	if got := Colorize(""); got != "" {
		t.Errorf("Colorize(empty) = %q", got)
	}
}
