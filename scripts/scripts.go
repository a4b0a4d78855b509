// Package scripts runs the project's ionic:<task> package.json scripts with
// the package manager the project uses.
package scripts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/louiss0/ionic-emulate-delegator/detect"
	"github.com/louiss0/ionic-emulate-delegator/internal/config"
	"github.com/louiss0/ionic-emulate-delegator/runner"
)

const PACKAGE_JSON = "package.json"

const (
	BUILD_TASK = "build"
	SERVE_TASK = "serve"
)

// DEV_SERVER_READY is the line the serve script prints once the dev server
// accepts requests.
const DEV_SERVER_READY = "dev server running:"

type PackageJSON struct {
	Scripts map[string]string `json:"scripts"`
}

// ReadPackageJSON reads dir/package.json. A missing file yields a nil
// PackageJSON and no error.
func ReadPackageJSON(dir string) (*PackageJSON, error) {
	data, err := os.ReadFile(filepath.Join(dir, PACKAGE_JSON))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read package.json: %w", err)
	}

	var pkg PackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}

	return &pkg, nil
}

// BuildRunArgs returns the arguments that make packageManager run script with args.
func BuildRunArgs(packageManager, script string, args []string) ([]string, error) {
	cmdArgs := []string{"run", script}

	switch packageManager {
	case detect.NPM, detect.PNPM:
		if len(args) > 0 {
			cmdArgs = append(cmdArgs, "--")
			cmdArgs = append(cmdArgs, args...)
		}

	case detect.YARN, detect.BUN:
		cmdArgs = append(cmdArgs, args...)

	default:
		return nil, fmt.Errorf("unsupported package manager: %s", packageManager)
	}

	return cmdArgs, nil
}

type Runner struct {
	dir                  string
	prefix               string
	commandRunnerGetter  func() runner.CommandRunner
	detectPackageManager func(dir string) (string, error)
}

func New(
	dir string,
	cfg *config.Configuration,
	commandRunnerGetter func() runner.CommandRunner,
	detectPackageManager func(dir string) (string, error),
) *Runner {
	return &Runner{
		dir:                  dir,
		prefix:               cfg.ScriptPrefix,
		commandRunnerGetter:  commandRunnerGetter,
		detectPackageManager: detectPackageManager,
	}
}

func (r *Runner) scriptName(task string) string {
	return r.prefix + task
}

// HasIonicScript reports whether package.json defines the script for task.
func (r *Runner) HasIonicScript(ctx context.Context, task string) (bool, error) {
	pkg, err := ReadPackageJSON(r.dir)
	if err != nil || pkg == nil {
		return false, err
	}

	return lo.HasKey(pkg.Scripts, r.scriptName(task)), nil
}

// RunIonicScript runs the script for task and waits for it to exit. The serve
// script only runs until the dev server is ready and keeps serving until ctx
// is cancelled.
func (r *Runner) RunIonicScript(ctx context.Context, task string, args []string) error {
	script := r.scriptName(task)

	packageManager, err := r.detectPackageManager(r.dir)
	if err != nil {
		return fmt.Errorf("failed to run the %s script: %w", script, err)
	}

	cmdArgs, err := BuildRunArgs(packageManager, script, args)
	if err != nil {
		return fmt.Errorf("failed to run the %s script: %w", script, err)
	}

	cmdRunner := r.commandRunnerGetter()
	if err := cmdRunner.SetTargetDir(r.dir); err != nil {
		return err
	}

	log.Debug("Running ionic script", "command", packageManager+" "+strings.Join(cmdArgs, " "))
	cmdRunner.Command(ctx, packageManager, cmdArgs...)

	run := cmdRunner.Run
	if task == SERVE_TASK {
		run = func() error { return cmdRunner.StartUntil(DEV_SERVER_READY) }
	}

	if err := run(); err != nil {
		return fmt.Errorf("failed to run the %s script: %w", script, err)
	}
	return nil
}
