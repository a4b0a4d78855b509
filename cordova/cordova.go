// Package cordova wraps the cordova CLI: platform and plugin installation,
// live reload wiring through config.xml and the final cordova invocation.
package cordova

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/louiss0/ionic-emulate-delegator/custom_errors"
	"github.com/louiss0/ionic-emulate-delegator/detect"
	"github.com/louiss0/ionic-emulate-delegator/internal/config"
	"github.com/louiss0/ionic-emulate-delegator/internal/progress"
	"github.com/louiss0/ionic-emulate-delegator/runner"
)

const (
	PLATFORMS_DIR = "platforms"
	PLUGINS_DIR   = "plugins"
)

// Cordova runs cordova for the project in dir.
type Cordova struct {
	dir                 string
	config              *config.Configuration
	commandRunnerGetter func() runner.CommandRunner
	pathLookup          detect.PathLookup
	progress            progress.Reporter
	interfaceAddrs      func() ([]net.Addr, error)
	output              io.Writer
}

type Option func(*Cordova)

func WithPathLookup(pathLookup detect.PathLookup) Option {
	return func(c *Cordova) { c.pathLookup = pathLookup }
}

func WithProgress(reporter progress.Reporter) Option {
	return func(c *Cordova) { c.progress = reporter }
}

// WithInterfaceAddrs replaces net.InterfaceAddrs when resolving the live reload address.
func WithInterfaceAddrs(interfaceAddrs func() ([]net.Addr, error)) Option {
	return func(c *Cordova) { c.interfaceAddrs = interfaceAddrs }
}

// WithOutput sets where the output of an install hidden behind an animated
// reporter is replayed when the install fails.
func WithOutput(w io.Writer) Option {
	return func(c *Cordova) { c.output = w }
}

func New(dir string, cfg *config.Configuration, commandRunnerGetter func() runner.CommandRunner, opts ...Option) *Cordova {
	c := &Cordova{
		dir:                 dir,
		config:              cfg,
		commandRunnerGetter: commandRunnerGetter,
		pathLookup:          detect.RealPathLookup{},
		progress:            progress.Noop{},
		interfaceAddrs:      net.InterfaceAddrs,
		output:              os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsPlatformInstalled reports whether platforms/<platform> exists in dir.
func (c *Cordova) IsPlatformInstalled(platform, dir string) bool {
	return isDir(filepath.Join(dir, PLATFORMS_DIR, platform))
}

// ArePluginsInstalled reports whether the plugins directory exists in dir.
func (c *Cordova) ArePluginsInstalled(dir string) bool {
	return isDir(filepath.Join(dir, PLUGINS_DIR))
}

func (c *Cordova) InstallPlatform(ctx context.Context, platform string) error {
	if err := c.install(ctx, fmt.Sprintf("Adding the %s platform", platform), "platform", "add", platform); err != nil {
		return fmt.Errorf("failed to add the %s platform: %w", platform, err)
	}
	return nil
}

// InstallPlugins adds the configured plugins one at a time and stops at the first failure.
func (c *Cordova) InstallPlugins(ctx context.Context) error {
	for _, plugin := range c.config.Plugins {
		if err := c.install(ctx, fmt.Sprintf("Adding the %s plugin", plugin), "plugin", "add", plugin, "--save"); err != nil {
			return fmt.Errorf("failed to add the %s plugin: %w", plugin, err)
		}
	}
	return nil
}

// SetupLiveReload resolves the dev server address and points config.xml at it.
func (c *Cordova) SetupLiveReload(ctx context.Context, opts Options, dir string) (LiveReloadOptions, error) {
	if err := ctx.Err(); err != nil {
		return LiveReloadOptions{}, custom_errors.Silence(err)
	}

	opts = opts.WithDefaults(c.config)

	address, err := c.resolveAddress(opts.Address)
	if err != nil {
		return LiveReloadOptions{}, err
	}

	liveReload := LiveReloadOptions{
		Address:        address,
		Port:           opts.Port,
		LiveReloadPort: opts.LiveReloadPort,
		DevServer:      fmt.Sprintf("http://%s:%d", address, opts.Port),
		ConsoleLogs:    opts.ConsoleLogs,
		ServerLogs:     opts.ServerLogs,
	}

	if err := SetContentSrc(dir, liveReload.DevServer); err != nil {
		return LiveReloadOptions{}, fmt.Errorf("failed to point config.xml at the dev server: %w", err)
	}

	log.Debug("Live reload configured", "dev_server", liveReload.DevServer, "livereload_port", liveReload.LiveReloadPort)
	return liveReload, nil
}

// resolveAddress turns the wildcard address into one an emulator can reach.
func (c *Cordova) resolveAddress(address string) (string, error) {
	if address != "" && address != "0.0.0.0" {
		return address, nil
	}

	addrs, err := c.interfaceAddrs()
	if err != nil {
		return "", fmt.Errorf("failed to list network interfaces: %w", err)
	}

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip := ipNet.IP.To4(); ip != nil {
			return ip.String(), nil
		}
	}

	return "localhost", nil
}

// ExecCordovaCommand runs cordova with args. Without live reload the app is
// pointed back at its bundled index.html first.
func (c *Cordova) ExecCordovaCommand(ctx context.Context, args []string, liveReload bool, serve ServeOptions) error {
	if liveReload {
		log.Info("Live reload is serving the app", "url", serve.LiveReload.DevServer)
	} else if err := ResetContentSrc(c.dir); err != nil {
		return err
	}

	return c.run(ctx, func(runner.CommandRunner) {}, args...)
}

// install runs cordova under the progress reporter. An animated reporter owns
// the terminal, so cordova's output is held back and only shown on failure.
func (c *Cordova) install(ctx context.Context, step string, args ...string) error {
	var captured bytes.Buffer

	c.progress.Start(step)
	err := c.run(ctx, func(r runner.CommandRunner) {
		if c.progress.Animated() {
			r.SetOutput(&captured, &captured)
		}
	}, args...)
	c.progress.Stop(err == nil)

	if err != nil && captured.Len() > 0 {
		_, _ = captured.WriteTo(c.output)
	}
	return err
}

func (c *Cordova) run(ctx context.Context, prepare func(runner.CommandRunner), args ...string) error {
	if _, err := detect.DetectCordova(c.config.CordovaCmd, c.pathLookup); err != nil {
		return err
	}

	r := c.commandRunnerGetter()
	if err := r.SetTargetDir(c.dir); err != nil {
		return err
	}

	prepare(r)
	r.Command(ctx, c.config.CordovaCmd, args...)
	return r.Run()
}
