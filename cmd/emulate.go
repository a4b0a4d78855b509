package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/louiss0/ionic-emulate-delegator/cordova"
	"github.com/louiss0/ionic-emulate-delegator/custom_errors"
	"github.com/louiss0/ionic-emulate-delegator/custom_flags"
	"github.com/louiss0/ionic-emulate-delegator/detect"
	"github.com/louiss0/ionic-emulate-delegator/env"
	"github.com/louiss0/ionic-emulate-delegator/internal/config"
	"github.com/louiss0/ionic-emulate-delegator/scripts"
)

const IOS_REQUIRES_MAC_MESSAGE = "✗ You cannot run iOS unless you are on Mac OSX."

const (
	EMULATE    = "emulate"
	BUILD_TASK = scripts.BUILD_TASK
	SERVE_TASK = scripts.SERVE_TASK
)

const (
	_CONSOLE_LOGS_FLAG     = "consolelogs"
	_SERVER_LOGS_FLAG      = "serverlogs"
	_DEBUG_FLAG            = "debug"
	_RELEASE_FLAG          = "release"
	_LIVE_RELOAD_FLAG      = "livereload"
	_PORT_FLAG             = "port"
	_LIVE_RELOAD_PORT_FLAG = "livereload-port"
	_ADDRESS_FLAG          = "address"
)

const _MAX_PORT = 65535

func NewEmulateCmd(logger Logger) *cobra.Command {
	portFlag := custom_flags.NewRangeFlag(_PORT_FLAG, 1, _MAX_PORT)
	liveReloadPortFlag := custom_flags.NewRangeFlag(_LIVE_RELOAD_PORT_FLAG, 1, _MAX_PORT)
	addressFlag := custom_flags.NewEmptyStringFlag(_ADDRESS_FLAG)

	cmd := &cobra.Command{
		Use:   "emulate [platform] [flags]",
		Short: "Emulate an Ionic project on a simulator or emulator",
		Long: `Emulate an Ionic project on a simulator or emulator.

The platform defaults to ios. Missing cordova platforms and plugins are added
first, then the project's ionic:build script runs when package.json has one.
With --livereload the ionic:serve script starts the dev server and config.xml
points the app at it. Every flag this command does not know is passed to
cordova as it was written.

Examples:
  ionic emulate android
  ionic emulate ios --livereload --port 8200
  ionic emulate android --target=Pixel_5 --release`,
		// Flags are parsed by the root's PersistentPreRunE so unknown ones
		// survive in args for cordova.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if help, _ := cmd.Flags().GetBool("help"); help {
				return cmd.Help()
			}

			liveReload, _ := cmd.Flags().GetBool(_LIVE_RELOAD_FLAG)
			consoleLogs, _ := cmd.Flags().GetBool(_CONSOLE_LOGS_FLAG)
			serverLogs, _ := cmd.Flags().GetBool(_SERVER_LOGS_FLAG)

			platform, cordovaVector := normalizeArgs(cmd.Flags().Args(), args)

			opts := cordova.Options{
				Platform:       platform,
				LiveReload:     liveReload,
				Port:           portFlag.Value(),
				LiveReloadPort: liveReloadPortFlag.Value(),
				Address:        addressFlag.String(),
				ConsoleLogs:    consoleLogs,
				ServerLogs:     serverLogs,
			}

			e := emulator{
				dir:           getProjectDirFromCommandContext(cmd),
				config:        getConfigurationFromCommandContext(cmd),
				goEnv:         getGoEnvFromCommandContext(cmd),
				host:          getHostEnvironmentFromCommandContext(cmd),
				debugExecutor: getDebugExecutorFromCommandContext(cmd),
				installer:     getPlatformInstallerFromCommandContext(cmd),
				scripts:       getScriptRunnerFromCommandContext(cmd),
				liveReloader:  getLiveReloaderFromCommandContext(cmd),
				executor:      getCordovaExecutorFromCommandContext(cmd),
				logger:        logger,
			}

			e.run(cmd.Context(), opts, append([]string{EMULATE}, args...), cordovaVector)
			return nil
		},
	}

	cmd.Flags().BoolP(_CONSOLE_LOGS_FLAG, "c", false, "Print app console logs to the terminal (live reload)")
	cmd.Flags().BoolP(_SERVER_LOGS_FLAG, "s", false, "Print dev server logs to the terminal (live reload)")
	cmd.Flags().Bool(_DEBUG_FLAG, false, "Create a cordova debug build")
	cmd.Flags().Bool(_RELEASE_FLAG, false, "Create a cordova release build")
	cmd.Flags().BoolP(_LIVE_RELOAD_FLAG, "l", false, "Serve the app from the dev server and reload it on change")
	cmd.Flags().VarP(portFlag, _PORT_FLAG, "p", rangeUsage("Dev server HTTP port", portFlag, "8100"))
	cmd.Flags().VarP(liveReloadPortFlag, _LIVE_RELOAD_PORT_FLAG, "r", rangeUsage("Live reload port", liveReloadPortFlag, "35729"))
	cmd.Flags().Var(addressFlag, _ADDRESS_FLAG, "Dev server address (defaults to the first external IPv4 address)")

	_ = cmd.RegisterFlagCompletionFunc(_ADDRESS_FLAG, cobra.NoFileCompletions)
	cmd.ValidArgs = []string{detect.IOS, detect.ANDROID, detect.BROWSER}

	return cmd
}

func rangeUsage(description string, flag custom_flags.RangeFlag, fallback string) string {
	return fmt.Sprintf("%s, %d-%d (defaults to %s)", description, flag.Min(), flag.Max(), fallback)
}

// normalizeArgs picks the platform out of the positional arguments and
// returns it with the vector ["emulate", platform, ...remaining raw args].
func normalizeArgs(positional, args []string) (string, []string) {
	platform := detect.IOS
	rest := append([]string{}, args...)

	if len(positional) > 0 {
		platform = strings.ToLower(positional[0])
		if index := lo.IndexOf(rest, positional[0]); index >= 0 {
			rest = append(rest[:index], rest[index+1:]...)
		}
	}

	return platform, append([]string{EMULATE, platform}, rest...)
}

// serveScriptArgs are the arguments the ionic:serve script receives for live reload.
func serveScriptArgs(opts cordova.Options) []string {
	return []string{
		"--runLivereload",
		"--isPlatformServe",
		"--livereload",
		"--port", strconv.Itoa(opts.Port),
		"--livereload-port", strconv.Itoa(opts.LiveReloadPort),
		"--address", opts.Address,
		"--iscordovaserve",
		"--nobrowser",
	}
}

type emulator struct {
	dir           string
	config        *config.Configuration
	goEnv         env.GoEnv
	host          detect.HostEnvironment
	debugExecutor DebugExecutor
	installer     PlatformInstaller
	scripts       ScriptRunner
	liveReloader  LiveReloader
	executor      CordovaExecutor
	logger        Logger
}

// run never fails: errors are reported and the command still exits cleanly.
// rawArgs is the command line as typed, starting with "emulate"; cordovaArgs
// is the same line with the platform made explicit. A dev server started for
// live reload is stopped when run returns.
func (e emulator) run(ctx context.Context, opts cordova.Options, rawArgs, cordovaArgs []string) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.report(e.emulate(ctx, opts, rawArgs, cordovaArgs))
}

func (e emulator) emulate(ctx context.Context, opts cordova.Options, rawArgs, cordovaArgs []string) error {
	platform := opts.Platform

	if platform == detect.IOS && !detect.IsMacOS(e.host) {
		return custom_errors.ErrUnsupportedHost
	}

	if !e.installer.IsPlatformInstalled(platform, e.dir) {
		e.debugExecutor.LogDebugMessageIfDebugIsTrue("Platform is not installed", "platform", platform)
		if err := e.installer.InstallPlatform(ctx, platform); err != nil {
			return err
		}
	}

	if !e.installer.ArePluginsInstalled(e.dir) {
		e.debugExecutor.LogDebugMessageIfDebugIsTrue("Plugins are not installed")
		if err := e.installer.InstallPlugins(ctx); err != nil {
			return err
		}
	}

	hasBuild, err := e.scripts.HasIonicScript(ctx, BUILD_TASK)
	if err != nil {
		return err
	}

	if hasBuild {
		buildArgs := lo.Drop(rawArgs, 2)
		if err := e.scripts.RunIonicScript(ctx, BUILD_TASK, buildArgs); err != nil {
			return err
		}
	}

	serve := cordova.DefaultServe()
	if opts.LiveReload {
		liveReload, err := e.startLiveReload(ctx, opts)
		if err != nil {
			return err
		}
		serve = cordova.LiveReloadServe(liveReload)
	}

	cordovaArgs = cordova.FilterArgumentsForCordova(cordovaArgs)

	e.goEnv.ExecuteIfModeIsProduction(func() {
		log.Info("Running cordova", "command", strings.Join(cordovaArgs, " "))
	})
	e.debugExecutor.LogCommandIfDebugIsTrue(e.config.CordovaCmd, cordovaArgs...)

	return e.executor.ExecCordovaCommand(ctx, cordovaArgs, opts.LiveReload, serve)
}

// startLiveReload starts the ionic:serve script, when there is one, alongside
// the live reload setup and waits until the dev server is ready and config.xml
// points at it. The dev server itself lives as long as ctx.
func (e emulator) startLiveReload(ctx context.Context, opts cordova.Options) (cordova.LiveReloadOptions, error) {
	hasServe, err := e.scripts.HasIonicScript(ctx, SERVE_TASK)
	if err != nil {
		return cordova.LiveReloadOptions{}, err
	}

	var (
		liveReload cordova.LiveReloadOptions
		serveErr   error
		setupErr   error
	)
	g, gctx := errgroup.WithContext(ctx)

	if hasServe {
		serveArgs := serveScriptArgs(opts.WithDefaults(e.config))
		// Wait cancels gctx, so the dev server only follows it until it is ready.
		serveCtx, stopServe := context.WithCancel(ctx)
		g.Go(func() error {
			unwatch := context.AfterFunc(gctx, stopServe)
			serveErr = e.scripts.RunIonicScript(serveCtx, SERVE_TASK, serveArgs)
			if serveErr == nil {
				unwatch()
			}
			return serveErr
		})
	}

	g.Go(func() error {
		liveReload, setupErr = e.liveReloader.SetupLiveReload(gctx, opts, e.dir)
		return setupErr
	})

	if err := g.Wait(); err != nil {
		return cordova.LiveReloadOptions{}, loudest(err, serveErr, setupErr)
	}
	return liveReload, nil
}

// loudest prefers an error that is not silent, so a sibling cancelled by the
// real failure does not hide it.
func loudest(first error, errs ...error) error {
	if loud, found := lo.Find(errs, func(err error) bool {
		return err != nil && !custom_errors.IsSilent(err)
	}); found {
		return loud
	}
	return first
}

func (e emulator) report(err error) {
	switch {
	case err == nil:
	case custom_errors.IsSilent(err):
		e.debugExecutor.LogDebugMessageIfDebugIsTrue("Emulate stopped", "reason", err.Error())
	case errors.Is(err, custom_errors.ErrUnsupportedHost):
		e.logger.Error(IOS_REQUIRES_MAC_MESSAGE)
	default:
		e.logger.Error(err)
	}
}
