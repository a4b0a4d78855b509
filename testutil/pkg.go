// Package testutil builds root commands wired to testify mocks.
package testutil

import (
	"github.com/spf13/cobra"
	tmock "github.com/stretchr/testify/mock"

	"github.com/louiss0/ionic-emulate-delegator/cmd"
	"github.com/louiss0/ionic-emulate-delegator/detect"
	"github.com/louiss0/ionic-emulate-delegator/internal/config"
	"github.com/louiss0/ionic-emulate-delegator/mock"
	"github.com/louiss0/ionic-emulate-delegator/runner"
)

// RootCommandFactory is a helper struct for creating cobra.Command instances
// with mocked collaborators for testing purposes.
type RootCommandFactory struct {
	Runner        *mock.MockCommandRunner
	DebugExecutor *mock.MockDebugExecutor
	Host          *mock.MockHostEnvironment
	Installer     *mock.MockPlatformInstaller
	Scripts       *mock.MockScriptRunner
	LiveReloader  *mock.MockLiveReloader
	Executor      *mock.MockCordovaExecutor
	Logger        *mock.MockLogger

	// Config is returned by LoadConfig unless LoadConfigErr is set.
	Config        *config.Configuration
	LoadConfigErr error

	// Toolchains records what the collaborator constructors received.
	Toolchains []cmd.Toolchain
	// RequestedDirs records the --cwd values passed to NewHostEnvironment.
	RequestedDirs []string
	// VerboseRequests records the values passed to NewDebugExecutor.
	VerboseRequests []bool
}

// NewRootCommandFactory creates a factory whose host reports platform and dir.
func NewRootCommandFactory(platform, dir string) *RootCommandFactory {
	return &RootCommandFactory{
		Runner:        mock.NewMockCommandRunner(),
		DebugExecutor: mock.NewPermissiveDebugExecutor(),
		Host:          mock.NewMockHostEnvironment(platform, dir),
		Installer:     &mock.MockPlatformInstaller{},
		Scripts:       &mock.MockScriptRunner{},
		LiveReloader:  &mock.MockLiveReloader{},
		Executor:      &mock.MockCordovaExecutor{},
		Logger:        &mock.MockLogger{},
		Config:        config.Defaults(),
	}
}

func (f *RootCommandFactory) dependencies() cmd.Dependencies {
	record := func(t cmd.Toolchain) {
		f.Toolchains = append(f.Toolchains, t)
	}

	return cmd.Dependencies{
		CommandRunnerGetter: func() runner.CommandRunner {
			return f.Runner
		},
		NewHostEnvironment: func(cwd string) detect.HostEnvironment {
			f.RequestedDirs = append(f.RequestedDirs, cwd)
			return f.Host
		},
		LoadConfig: func(string) (*config.Configuration, error) {
			if f.LoadConfigErr != nil {
				return nil, f.LoadConfigErr
			}
			return f.Config, nil
		},
		NewPlatformInstaller: func(t cmd.Toolchain) cmd.PlatformInstaller {
			record(t)
			return f.Installer
		},
		NewScriptRunner: func(t cmd.Toolchain) cmd.ScriptRunner {
			return f.Scripts
		},
		NewLiveReloader: func(t cmd.Toolchain) cmd.LiveReloader {
			return f.LiveReloader
		},
		NewCordovaExecutor: func(t cmd.Toolchain) cmd.CordovaExecutor {
			return f.Executor
		},
		NewDebugExecutor: func(verbose bool) cmd.DebugExecutor {
			f.VerboseRequests = append(f.VerboseRequests, verbose)
			return f.DebugExecutor
		},
		Logger: f.Logger,
	}
}

// CreateRootCmd returns a fresh root command backed by the factory's mocks.
func (f *RootCommandFactory) CreateRootCmd() *cobra.Command {
	return cmd.NewRootCmd(f.dependencies())
}

// AssertExpectations checks every collaborator mock.
func (f *RootCommandFactory) AssertExpectations(t tmock.TestingT) {
	tmock.AssertExpectationsForObjects(t,
		f.Installer,
		f.Scripts,
		f.LiveReloader,
		f.Executor,
		f.Logger,
	)
}
