package app

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version may be set at build time with -ldflags "-X github.com/saylorsolutions/dccctl/app.Version=...".
var Version = "0.3.0"

// SemVer parses [Version], falling back to 0.0.0 for an invalid build value.
func SemVer() *semver.Version {
	sv, err := semver.NewVersion(Version)
	if err != nil {
		return semver.New(0, 0, 0, "", "")
	}
	return sv
}

// VersionString is the startup banner of a tool, like "dccpp - 0.3.0".
func VersionString(name string) string {
	return fmt.Sprintf("%s - %s", name, SemVer())
}
