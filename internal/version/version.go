// Package version reports the build version of vrpoll.
package version

import (
	"fmt"
	"strings"
)

// Version is set via ldflags at build time: -ldflags "-X github.com/Alia5/vrpoll/internal/version.Version=x.y.z"
var Version = ""

// Get returns the version string that was set at build time via ldflags.
// Returns "0.0.1-dev" if Version is empty (development builds only).
func Get() (string, error) {
	if Version == "" {
		return "0.0.1-dev", nil
	}

	v := strings.TrimPrefix(Version, "v")
	base := strings.SplitN(v, "-", 2)[0]
	if !strings.Contains(base, ".") {
		return "", fmt.Errorf("invalid version format: %s (expected x.y.z)", Version)
	}
	return v, nil
}
