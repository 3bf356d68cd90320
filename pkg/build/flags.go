// SPDX-License-Identifier: MIT
//
// Package build exposes the application name, build time, commit and version
// embedded at link time, for example:
//
//	go build -ldflags "-X peakfreq/pkg/build.buildName=peakfreq \
//	    -X peakfreq/pkg/build.buildVersion=0.3.0 ..."
//
// Development builds carry no ldflags at all and fall back to defaults.
package build

import "fmt"

const (
	defaultName        = "peakfreq"
	defaultDescription = "Streaming spectral-peak frequency estimator"
	devValue           = "dev"
)

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:        defaultName,
		Description: defaultDescription,
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "unknown",
	}
)

// Initialize copies the ldflags variables into the build information. When
// none were provided the development defaults are used; a partial set is
// rejected because it points at a broken release script.
func Initialize() error {
	if buildName == "" && buildTime == "" && buildCommit == "" && buildVersion == "" {
		buildFlags.Name = defaultName
		buildFlags.Time = devValue
		buildFlags.Commit = devValue
		buildFlags.Version = devValue
		return nil
	}

	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion

	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// String renders the version line printed by the CLI.
func (f *ldFlags) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", f.Name, f.Version, f.Commit, f.Time)
}
