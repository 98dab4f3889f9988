// Package version holds the einstein release version.
package version

import "fmt"

// Version is the release printed by "einstein version". The minor number
// changes when generated text changes for the same input.
var Version = semver{major: 0, minor: 1, patch: 0}

type semver struct {
	major, minor, patch int
}

func (v semver) String() string {
	return fmt.Sprintf("v%d.%d.%d", v.major, v.minor, v.patch)
}
