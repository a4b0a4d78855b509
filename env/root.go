// Package env reads the GO_MODE environment variable that decides how chatty
// the CLI is.
package env

import (
	"fmt"
	"os"

	"github.com/samber/lo"
)

const _GO_MODE_ENV_KEY = "GO_MODE"

const (
	DEVELOPMENT = "development"
	PRODUCTION  = "production"
	DEBUG       = "debug"
)

var allowedModes = []string{DEVELOPMENT, PRODUCTION, DEBUG}

type GoEnv struct {
	goEnv       string
	goEnvExists bool
}

// NewGoEnv reads GO_MODE. An unset variable means production.
func NewGoEnv() (GoEnv, error) {
	goEnv := os.Getenv(_GO_MODE_ENV_KEY)

	if goEnv != "" && !lo.Contains(allowedModes, goEnv) {
		return GoEnv{}, fmt.Errorf("wrong go mode %q the only allowed modes are %v", goEnv, allowedModes)
	}

	return GoEnv{goEnv, goEnv != ""}, nil
}

func (e GoEnv) Mode() string {
	if !e.goEnvExists {
		return PRODUCTION
	}
	return e.goEnv
}

// IsDebugMode reports a debug build, which always logs verbosely.
func (e GoEnv) IsDebugMode() bool {
	return e.goEnv == DEBUG
}

func (e GoEnv) IsProductionMode() bool {
	return e.goEnv == PRODUCTION || !e.goEnvExists
}

func (e GoEnv) ExecuteIfModeIsProduction(cb func()) {
	if e.IsProductionMode() {
		cb()
	}
}
