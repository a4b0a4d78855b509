// Package build_info holds the values injected at build time through -ldflags.
// All validation happens in init so a bad release build fails on start.
package build_info

import (
	"fmt"
	"regexp"
	"time"

	"github.com/samber/lo"
)

// BuildInfo is a string set through -ldflags.
type BuildInfo string

func (value BuildInfo) String() string {
	return string(value)
}

var (
	rawCLI_VERSION = "dev"
	rawGO_MODE     = "development"
	rawBUILD_DATE  = "unknown"
)

var (
	CLI_VERSION BuildInfo
	GO_MODE     BuildInfo
	BUILD_DATE  BuildInfo
)

var semverRegex = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-[0-9A-Za-z.-]+)?(?:\+[0-9A-Za-z.-]+)?$`)

func init() {
	version := rawCLI_VERSION
	if len(version) > 0 && version[0] == 'v' {
		version = version[1:]
	}

	date := rawBUILD_DATE
	if t, err := time.Parse(time.RFC3339, rawBUILD_DATE); err == nil {
		date = t.Format(time.DateOnly)
	}

	CLI_VERSION = BuildInfo(version)
	GO_MODE = BuildInfo(rawGO_MODE)
	BUILD_DATE = BuildInfo(date)

	if err := validate(); err != nil {
		panic(err)
	}
}

func validate() error {
	allowedModes := []string{"development", "production", "debug"}
	if !lo.Contains(allowedModes, GO_MODE.String()) {
		return fmt.Errorf("build_info: invalid GO_MODE %q must be one of %v", GO_MODE, allowedModes)
	}

	if CLI_VERSION.String() != "dev" && !semverRegex.MatchString(CLI_VERSION.String()) {
		return fmt.Errorf("build_info: invalid CLI_VERSION %q must be a semver string", CLI_VERSION)
	}

	if BUILD_DATE.String() == "unknown" {
		if GO_MODE.String() == "production" {
			return fmt.Errorf("build_info: BUILD_DATE must be set for production builds")
		}
		return nil
	}

	if _, err := time.Parse(time.DateOnly, BUILD_DATE.String()); err != nil {
		return fmt.Errorf("build_info: invalid BUILD_DATE %q: %w", BUILD_DATE, err)
	}
	return nil
}
