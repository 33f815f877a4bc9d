// SPDX-License-Identifier: MIT
//
// Package build exposes the name, version, commit and build time stamped into
// the binary with linker flags:
//
//	go build -ldflags "-X micviz/pkg/build.buildVersion=0.3.0 -X micviz/pkg/build.buildCommit=$(git rev-parse --short HEAD)"
//
// Development builds run without them and report "dev" values.
package build

import (
	"errors"
	"fmt"
)

// Info describes the running binary.
type Info struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// String formats the version line printed by --version.
func (i Info) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", i.Version, i.Commit, i.Time)
}

// Populated by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
)

var info = Info{
	Name:        "micviz",
	Description: "Live microphone RMS envelope and spectrum in the terminal",
	Time:        "unknown",
	Commit:      "unknown",
	Version:     "dev",
}

// Initialize copies the linker-provided values into the build info. It
// reports every missing value; the defaults stay in place for those.
func Initialize() error {
	var errs []error
	set := func(dst *string, v, flag string) {
		if v == "" {
			errs = append(errs, fmt.Errorf("%s is required", flag))
			return
		}
		*dst = v
	}

	set(&info.Name, buildName, "BuildName")
	set(&info.Time, buildTime, "BuildTime")
	set(&info.Commit, buildCommit, "BuildCommit")
	set(&info.Version, buildVersion, "BuildVersion")

	return errors.Join(errs...)
}

// Get returns the current build information.
func Get() Info {
	return info
}
