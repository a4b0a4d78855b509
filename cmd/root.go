// Package cmd provides the command-line interface of the ionic emulate delegator.
package cmd

import (
	// standard library
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	// external
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	// internal
	"github.com/louiss0/ionic-emulate-delegator/build_info"
	"github.com/louiss0/ionic-emulate-delegator/cordova"
	"github.com/louiss0/ionic-emulate-delegator/custom_flags"
	"github.com/louiss0/ionic-emulate-delegator/detect"
	"github.com/louiss0/ionic-emulate-delegator/env"
	"github.com/louiss0/ionic-emulate-delegator/internal/config"
	"github.com/louiss0/ionic-emulate-delegator/internal/progress"
	"github.com/louiss0/ionic-emulate-delegator/runner"
	"github.com/louiss0/ionic-emulate-delegator/scripts"
)

type contextKey string

// Keys for the values PersistentPreRunE stores in the command context
const (
	_GO_ENV             contextKey = "go_env"
	_DEBUG_EXECUTOR     contextKey = "debug_executor"
	_HOST_ENVIRONMENT   contextKey = "host_environment"
	_CONFIGURATION      contextKey = "configuration"
	_PROJECT_DIR        contextKey = "project_dir"
	_PLATFORM_INSTALLER contextKey = "platform_installer"
	_SCRIPT_RUNNER      contextKey = "script_runner"
	_LIVE_RELOADER      contextKey = "live_reloader"
	_CORDOVA_EXECUTOR   contextKey = "cordova_executor"
)

const (
	_CWD_FLAG     = "cwd"
	_VERBOSE_FLAG = "verbose"
	ENV_FILE      = ".env"
)

// PlatformInstaller checks for and installs cordova platforms and plugins.
type PlatformInstaller interface {
	IsPlatformInstalled(platform, dir string) bool
	InstallPlatform(ctx context.Context, platform string) error
	ArePluginsInstalled(dir string) bool
	InstallPlugins(ctx context.Context) error
}

// ScriptRunner runs the project's ionic:<task> scripts.
type ScriptRunner interface {
	HasIonicScript(ctx context.Context, task string) (bool, error)
	RunIonicScript(ctx context.Context, task string, args []string) error
}

type LiveReloader interface {
	SetupLiveReload(ctx context.Context, opts cordova.Options, dir string) (cordova.LiveReloadOptions, error)
}

type CordovaExecutor interface {
	ExecCordovaCommand(ctx context.Context, args []string, liveReload bool, serve cordova.ServeOptions) error
}

// Logger is where commands report failures. *log.Logger satisfies it.
type Logger interface {
	Error(msg interface{}, keyvals ...interface{})
}

type DebugExecutor interface {
	ExecuteIfDebugIsTrue(cb func())
	LogDebugMessageIfDebugIsTrue(msg string, keyvals ...interface{})
	LogCommandIfDebugIsTrue(command string, args ...string)
}

type debugExecutor struct {
	debugFlag bool
}

func newDebugExecutor(debugFlag bool) DebugExecutor {
	return debugExecutor{debugFlag}
}

func (d debugExecutor) ExecuteIfDebugIsTrue(cb func()) {
	if d.debugFlag {
		cb()
	}
}

func (d debugExecutor) LogDebugMessageIfDebugIsTrue(msg string, keyvals ...interface{}) {
	if d.debugFlag {
		log.Debug(msg, keyvals...)
	}
}

func (d debugExecutor) LogCommandIfDebugIsTrue(command string, args ...string) {
	if d.debugFlag {
		log.Debug("Executing command:", "command", strings.Join(append([]string{command}, args...), " "))
	}
}

// Toolchain is what the collaborator constructors need to know about the project.
type Toolchain struct {
	Dir                 string
	Config              *config.Configuration
	CommandRunnerGetter func() runner.CommandRunner
}

// Dependencies holds the external dependencies for testing and real execution
type Dependencies struct {
	CommandRunnerGetter  func() runner.CommandRunner
	NewHostEnvironment   func(cwd string) detect.HostEnvironment
	LoadConfig           func(dir string) (*config.Configuration, error)
	NewPlatformInstaller func(Toolchain) PlatformInstaller
	NewScriptRunner      func(Toolchain) ScriptRunner
	NewLiveReloader      func(Toolchain) LiveReloader
	NewCordovaExecutor   func(Toolchain) CordovaExecutor
	NewDebugExecutor     func(bool) DebugExecutor
	Logger               Logger
}

// NewRootCmd creates a new root command with injectable dependencies.
func NewRootCmd(deps Dependencies) *cobra.Command {
	cwdFlag := custom_flags.NewFolderPathFlag(_CWD_FLAG)

	cmd := &cobra.Command{
		Use:     "ionic",
		Version: build_info.CLI_VERSION.String(),
		Short:   "Ionic CLI - build and run Ionic apps with cordova",
		Long: `Ionic CLI - prepares an Ionic project and delegates to cordova.

Before cordova runs, the CLI adds missing platforms and plugins, runs the
project's ionic:build script and, with live reload, the ionic:serve script.

Available commands:
		emulate    - Run an Ionic project on an emulator`,
		SilenceUsage: true,

		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			// Commands that disable flag parsing forward unknown flags to cordova,
			// so only the flags this CLI knows are parsed here.
			if c.DisableFlagParsing {
				// Persistent flags are only merged into c.Flags() on demand.
				c.Flags().AddFlagSet(c.InheritedFlags())
				c.Flags().ParseErrorsWhitelist.UnknownFlags = true
				if err := c.Flags().Parse(args); err != nil {
					return err
				}
			}

			verbose, err := c.Flags().GetBool(_VERBOSE_FLAG)
			if err != nil {
				return err
			}

			host := deps.NewHostEnvironment(cwdFlag.String())
			dir, err := host.WorkingDir()
			if err != nil {
				return err
			}

			if absDir, err := filepath.Abs(dir); err == nil {
				dir = absDir
			}

			err = godotenv.Load(filepath.Join(dir, ENV_FILE))
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				log.Error(err.Error())
			}

			goEnv, err := env.NewGoEnv()
			if err != nil {
				return err
			}

			// A debug build is always verbose.
			verbose = verbose || goEnv.IsDebugMode()
			if verbose {
				log.SetLevel(log.DebugLevel)
			}

			debugExecutor := deps.NewDebugExecutor(verbose)

			cfg, err := deps.LoadConfig(dir)
			if err != nil {
				return err
			}

			debugExecutor.LogDebugMessageIfDebugIsTrue(
				"Project resolved",
				"dir", dir,
				"host", host.Platform(),
				"mode", goEnv.Mode(),
				"cordova", cfg.CordovaCmd,
			)

			toolchain := Toolchain{
				Dir:                 dir,
				Config:              cfg,
				CommandRunnerGetter: deps.CommandRunnerGetter,
			}

			c_ctx := c.Context()

			lo.ForEach([][2]any{
				{_GO_ENV, goEnv},
				{_DEBUG_EXECUTOR, debugExecutor},
				{_HOST_ENVIRONMENT, host},
				{_CONFIGURATION, cfg},
				{_PROJECT_DIR, dir},
				{_PLATFORM_INSTALLER, deps.NewPlatformInstaller(toolchain)},
				{_SCRIPT_RUNNER, deps.NewScriptRunner(toolchain)},
				{_LIVE_RELOADER, deps.NewLiveReloader(toolchain)},
				{_CORDOVA_EXECUTOR, deps.NewCordovaExecutor(toolchain)},
			}, func(item [2]any, index int) {
				c_ctx = context.WithValue(c_ctx, item[0], item[1])
			})

			c.SetContext(c_ctx)
			return nil
		},
	}

	cmd.SetVersionTemplate(fmt.Sprintf(
		"ionic {{.Version}} (%s build, %s)\n",
		build_info.GO_MODE,
		build_info.BUILD_DATE,
	))

	cmd.AddCommand(NewEmulateCmd(deps.Logger))

	cmd.PersistentFlags().Bool(_VERBOSE_FLAG, false, "Log every step and external command")

	cmd.PersistentFlags().VarP(cwdFlag, _CWD_FLAG, "C", "Run as if the CLI was started in this project folder")

	_ = cmd.MarkPersistentFlagDirname(_CWD_FLAG)

	return cmd
}

// Global variable for the root command, initialized in init()
var rootCmd *cobra.Command

func init() {
	newCordova := func(t Toolchain) *cordova.Cordova {
		return cordova.New(t.Dir, t.Config, t.CommandRunnerGetter, cordova.WithProgress(progress.NewReporter()))
	}

	rootCmd = NewRootCmd(
		Dependencies{
			CommandRunnerGetter: func() runner.CommandRunner {
				return runner.New(exec.CommandContext)
			},
			NewHostEnvironment: func(cwd string) detect.HostEnvironment {
				return detect.NewHostEnvironment(cwd)
			},
			LoadConfig: config.Load,
			NewPlatformInstaller: func(t Toolchain) PlatformInstaller {
				return newCordova(t)
			},
			NewScriptRunner: func(t Toolchain) ScriptRunner {
				return scripts.New(t.Dir, t.Config, t.CommandRunnerGetter, func(dir string) (string, error) {
					return detect.DetectPackageManagerIn(dir, detect.RealFileSystem{}, detect.RealPathLookup{})
				})
			},
			NewLiveReloader: func(t Toolchain) LiveReloader {
				return newCordova(t)
			},
			NewCordovaExecutor: func(t Toolchain) CordovaExecutor {
				return newCordova(t)
			},
			NewDebugExecutor: newDebugExecutor,
			Logger:           log.Default(),
		},
	)
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		os.Exit(1)
	}
}

// Helper functions to retrieve dependencies from the command context.

func getGoEnvFromCommandContext(cmd *cobra.Command) env.GoEnv {
	return cmd.Context().Value(_GO_ENV).(env.GoEnv)
}

func getDebugExecutorFromCommandContext(cmd *cobra.Command) DebugExecutor {
	return cmd.Context().Value(_DEBUG_EXECUTOR).(DebugExecutor)
}

func getHostEnvironmentFromCommandContext(cmd *cobra.Command) detect.HostEnvironment {
	return cmd.Context().Value(_HOST_ENVIRONMENT).(detect.HostEnvironment)
}

func getConfigurationFromCommandContext(cmd *cobra.Command) *config.Configuration {
	return cmd.Context().Value(_CONFIGURATION).(*config.Configuration)
}

func getProjectDirFromCommandContext(cmd *cobra.Command) string {
	return cmd.Context().Value(_PROJECT_DIR).(string)
}

func getPlatformInstallerFromCommandContext(cmd *cobra.Command) PlatformInstaller {
	return cmd.Context().Value(_PLATFORM_INSTALLER).(PlatformInstaller)
}

func getScriptRunnerFromCommandContext(cmd *cobra.Command) ScriptRunner {
	return cmd.Context().Value(_SCRIPT_RUNNER).(ScriptRunner)
}

func getLiveReloaderFromCommandContext(cmd *cobra.Command) LiveReloader {
	return cmd.Context().Value(_LIVE_RELOADER).(LiveReloader)
}

func getCordovaExecutorFromCommandContext(cmd *cobra.Command) CordovaExecutor {
	return cmd.Context().Value(_CORDOVA_EXECUTOR).(CordovaExecutor)
}
