// Package mock provides testify mocks for the collaborators of the ionic commands.
package mock

import (
	"context"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/louiss0/ionic-emulate-delegator/cordova"
)

// MockDebugExecutor implements the cmd.DebugExecutor interface for testing purposes.
// Key-value pairs and command arguments are recorded as a single slice argument,
// so expectations can use mock.Anything for them.
type MockDebugExecutor struct {
	mock.Mock
}

func (m *MockDebugExecutor) ExecuteIfDebugIsTrue(cb func()) {
	m.Called(cb)
}

func (m *MockDebugExecutor) LogDebugMessageIfDebugIsTrue(msg string, keyvals ...interface{}) {
	m.Called(msg, keyvals)
}

func (m *MockDebugExecutor) LogCommandIfDebugIsTrue(command string, args ...string) {
	m.Called(command, args)
}

// NewPermissiveDebugExecutor accepts every debug call.
func NewPermissiveDebugExecutor() *MockDebugExecutor {
	m := &MockDebugExecutor{}
	m.On("ExecuteIfDebugIsTrue", mock.Anything).Return().Maybe()
	m.On("LogDebugMessageIfDebugIsTrue", mock.Anything, mock.Anything).Return().Maybe()
	m.On("LogCommandIfDebugIsTrue", mock.Anything, mock.Anything).Return().Maybe()
	return m
}

// MockCommandRunner implements the runner.CommandRunner interface.
// No real commands are executed; Command records the name followed by each argument.
type MockCommandRunner struct {
	mock.Mock
}

func NewMockCommandRunner() *MockCommandRunner {
	return &MockCommandRunner{}
}

func (m *MockCommandRunner) Command(ctx context.Context, name string, args ...string) {
	callArgs := []interface{}{name}
	for _, arg := range args {
		callArgs = append(callArgs, arg)
	}
	m.Called(callArgs...)
}

func (m *MockCommandRunner) SetTargetDir(dir string) error {
	return m.Called(dir).Error(0)
}

func (m *MockCommandRunner) Run() error {
	return m.Called().Error(0)
}

func (m *MockCommandRunner) StartUntil(marker string) error {
	return m.Called(marker).Error(0)
}

func (m *MockCommandRunner) SetOutput(stdout, stderr io.Writer) {
	m.Called(stdout, stderr)
}

// MockHostEnvironment implements detect.HostEnvironment.
type MockHostEnvironment struct {
	mock.Mock
}

func (m *MockHostEnvironment) Platform() string {
	return m.Called().String(0)
}

func (m *MockHostEnvironment) WorkingDir() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// NewMockHostEnvironment returns a host running platform from dir.
func NewMockHostEnvironment(platform, dir string) *MockHostEnvironment {
	m := &MockHostEnvironment{}
	m.On("Platform").Return(platform).Maybe()
	m.On("WorkingDir").Return(dir, nil).Maybe()
	return m
}

// MockPlatformInstaller implements cmd.PlatformInstaller.
type MockPlatformInstaller struct {
	mock.Mock
}

func (m *MockPlatformInstaller) IsPlatformInstalled(platform, dir string) bool {
	return m.Called(platform, dir).Bool(0)
}

func (m *MockPlatformInstaller) InstallPlatform(ctx context.Context, platform string) error {
	return m.Called(platform).Error(0)
}

func (m *MockPlatformInstaller) ArePluginsInstalled(dir string) bool {
	return m.Called(dir).Bool(0)
}

func (m *MockPlatformInstaller) InstallPlugins(ctx context.Context) error {
	return m.Called().Error(0)
}

// MockScriptRunner implements cmd.ScriptRunner.
type MockScriptRunner struct {
	mock.Mock
}

func (m *MockScriptRunner) HasIonicScript(ctx context.Context, task string) (bool, error) {
	args := m.Called(task)
	return args.Bool(0), args.Error(1)
}

func (m *MockScriptRunner) RunIonicScript(ctx context.Context, task string, args []string) error {
	return m.Called(task, args).Error(0)
}

// MockLiveReloader implements cmd.LiveReloader. The context is recorded first
// so Run functions can watch it.
type MockLiveReloader struct {
	mock.Mock
}

func (m *MockLiveReloader) SetupLiveReload(ctx context.Context, opts cordova.Options, dir string) (cordova.LiveReloadOptions, error) {
	args := m.Called(ctx, opts, dir)
	return args.Get(0).(cordova.LiveReloadOptions), args.Error(1)
}

// MockCordovaExecutor implements cmd.CordovaExecutor.
type MockCordovaExecutor struct {
	mock.Mock
}

func (m *MockCordovaExecutor) ExecCordovaCommand(ctx context.Context, args []string, liveReload bool, serve cordova.ServeOptions) error {
	return m.Called(args, liveReload, serve).Error(0)
}

// MockLogger implements cmd.Logger. Only the message is recorded.
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Error(msg interface{}, keyvals ...interface{}) {
	m.Called(msg)
}

// MockPathLookup implements detect.PathLookup from a fixed table.
// Names missing from the table are reported as not found.
type MockPathLookup struct {
	ExpectedLookPathResults map[string]struct {
		Path  string
		Error error
	}
}

func NewMockPathLookup() *MockPathLookup {
	return &MockPathLookup{
		ExpectedLookPathResults: map[string]struct {
			Path  string
			Error error
		}{},
	}
}

// Found registers name as installed at path.
func (m *MockPathLookup) Found(name, path string) *MockPathLookup {
	m.ExpectedLookPathResults[name] = struct {
		Path  string
		Error error
	}{Path: path}
	return m
}

func (m *MockPathLookup) LookPath(file string) (string, error) {
	result, ok := m.ExpectedLookPathResults[file]
	if !ok {
		return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
	}
	return result.Path, result.Error
}

// MockFileSystem implements detect.FileSystem over a set of existing paths.
type MockFileSystem struct {
	Existing map[string]bool
}

func NewMockFileSystem(paths ...string) *MockFileSystem {
	existing := map[string]bool{}
	for _, p := range paths {
		existing[p] = true
	}
	return &MockFileSystem{Existing: existing}
}

func (m *MockFileSystem) Stat(name string) (os.FileInfo, error) {
	if !m.Existing[name] {
		return nil, &os.PathError{Op: "stat", Path: name, Err: os.ErrNotExist}
	}
	return MockFileInfo{name: name}, nil
}

// MockFileInfo is the os.FileInfo returned by MockFileSystem.
type MockFileInfo struct {
	name string
}

func (f MockFileInfo) Name() string       { return f.name }
func (f MockFileInfo) Size() int64        { return 0 }
func (f MockFileInfo) Mode() os.FileMode  { return 0o644 }
func (f MockFileInfo) ModTime() time.Time { return time.Time{} }
func (f MockFileInfo) IsDir() bool        { return false }
func (f MockFileInfo) Sys() interface{}   { return nil }
