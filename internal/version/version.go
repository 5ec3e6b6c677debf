// Package version reports the build version, set at link time with
//
//	-ldflags "-X github.com/effective-security/xcsr/internal/version.Build=v1.2.3 -X github.com/effective-security/xcsr/internal/version.Commit=abcdef"
package version

import (
	"fmt"
	"runtime"
)

var (
	// Build is the semantic version of the build
	Build = "v0.0.0"
	// Commit is the source revision of the build
	Commit = ""
)

// Info describes the build
type Info struct {
	Build   string `json:"build" yaml:"build"`
	Commit  string `json:"commit,omitempty" yaml:"commit,omitempty"`
	Runtime string `json:"runtime" yaml:"runtime"`
}

// Current returns the version of the running binary
func Current() Info {
	return Info{
		Build:   Build,
		Commit:  Commit,
		Runtime: runtime.Version(),
	}
}

func (v Info) String() string {
	if v.Commit == "" {
		return fmt.Sprintf("%s (%s)", v.Build, v.Runtime)
	}
	return fmt.Sprintf("%s-%s (%s)", v.Build, v.Commit, v.Runtime)
}
