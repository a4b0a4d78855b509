package detect

import (
	"os"
	"runtime"
)

// Operating system names as reported by HostEnvironment.Platform.
const (
	MACOS   = "darwin"
	LINUX   = "linux"
	WINDOWS = "windows"
)

// Mobile platforms cordova can target.
const (
	IOS     = "ios"
	ANDROID = "android"
	BROWSER = "browser"
)

// HostEnvironment describes the machine the CLI runs on.
type HostEnvironment interface {
	// Platform returns the operating system name, "darwin" on macOS.
	Platform() string
	WorkingDir() (string, error)
}

// RealHostEnvironment reads the operating system from the Go runtime.
// Dir overrides the process working directory when set.
type RealHostEnvironment struct {
	Dir string
}

func NewHostEnvironment(dir string) RealHostEnvironment {
	return RealHostEnvironment{Dir: dir}
}

func (h RealHostEnvironment) Platform() string {
	return runtime.GOOS
}

func (h RealHostEnvironment) WorkingDir() (string, error) {
	if h.Dir != "" {
		return h.Dir, nil
	}
	return os.Getwd()
}

// IsMacOS reports whether host is running macOS.
func IsMacOS(host HostEnvironment) bool {
	return host.Platform() == MACOS
}
