package cordova

import (
	"github.com/louiss0/ionic-emulate-delegator/internal/config"
)

// Options are the parsed emulate flags the cordova collaborators care about.
// Zero values mean "use the configured default".
type Options struct {
	Platform       string
	LiveReload     bool
	Port           int
	LiveReloadPort int
	Address        string
	ConsoleLogs    bool
	ServerLogs     bool
}

// WithDefaults fills unset ports and address from cfg.
func (o Options) WithDefaults(cfg *config.Configuration) Options {
	if o.Port == 0 {
		o.Port = cfg.DefaultPort
	}
	if o.LiveReloadPort == 0 {
		o.LiveReloadPort = cfg.DefaultLiveReloadPort
	}
	if o.Address == "" {
		o.Address = cfg.DefaultAddress
	}
	return o
}

// LiveReloadOptions describe the dev server the app on the emulator loads from.
type LiveReloadOptions struct {
	Address        string
	Port           int
	LiveReloadPort int
	DevServer      string
	ConsoleLogs    bool
	ServerLogs     bool
}

// ServeOptions tells ExecCordovaCommand where the app loads its content from:
// the bundled index.html (Default) or a live reload dev server.
type ServeOptions struct {
	Default    bool
	LiveReload LiveReloadOptions
}

func DefaultServe() ServeOptions {
	return ServeOptions{Default: true}
}

func LiveReloadServe(opts LiveReloadOptions) ServeOptions {
	return ServeOptions{LiveReload: opts}
}
