// Package detect answers questions about the machine and the project the CLI
// runs against: the host operating system, the project's JS package manager
// and the location of the cordova binary.
package detect

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/samber/lo"
)

// PathLookup interface abstracts the exec.LookPath functionality.
type PathLookup interface {
	LookPath(file string) (string, error)
}

// RealPathLookup is the production implementation of PathLookup.
type RealPathLookup struct{}

// LookPath implements PathLookup using the real exec.LookPath.
func (r RealPathLookup) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// FileSystem interface abstracts file system operations for testability.
type FileSystem interface {
	Stat(name string) (os.FileInfo, error)
}

// RealFileSystem is the production implementation of FileSystem.
type RealFileSystem struct{}

// Stat implements FileSystem using the real os.Stat.
func (r RealFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

const BUN = "bun"
const NPM = "npm"
const PNPM = "pnpm"
const YARN = "yarn"

// ErrNoPackageManager is returned when no supported JavaScript package manager
// can be found for the project or on the PATH.
var ErrNoPackageManager = errors.New("no supported JavaScript package manager found")

// ErrNoLockfile is returned when the project directory holds none of the known lock files.
var ErrNoLockfile = errors.New("no lock file found")

// ErrCordovaNotFound is returned when the cordova binary is not on the PATH.
var ErrCordovaNotFound = errors.New("cordova is not installed; run `npm install -g cordova`")

const (
	BUN_LOCKB         = "bun.lockb"
	BUN_LOCK          = "bun.lock"
	PNPM_LOCK_YAML    = "pnpm-lock.yaml"
	YARN_LOCK         = "yarn.lock"
	PACKAGE_LOCK_JSON = "package-lock.json"
)

// Lock files are checked in this order; package-lock.json is last because
// other tools sometimes leave one behind.
var lockFiles = [5]string{
	BUN_LOCKB,
	BUN_LOCK,
	PNPM_LOCK_YAML,
	YARN_LOCK,
	PACKAGE_LOCK_JSON,
}

var LockFileToPackageManagerMap = map[string]string{
	BUN_LOCKB:         BUN,
	BUN_LOCK:          BUN,
	PNPM_LOCK_YAML:    PNPM,
	YARN_LOCK:         YARN,
	PACKAGE_LOCK_JSON: NPM,
}

// SupportedJSPackageManagers lists the package managers searched on the PATH.
// ! NPM must be last: anyone with node installed has it.
var SupportedJSPackageManagers = [4]string{BUN, PNPM, YARN, NPM}

// DetectLockfileIn returns the first known lock file found in dir.
func DetectLockfileIn(dir string, fs FileSystem) (string, error) {
	lockFile, ok := lo.Find(lockFiles[:], func(lockFile string) bool {
		_, err := fs.Stat(filepath.Join(dir, lockFile))
		return err == nil
	})

	if !ok {
		return "", fmt.Errorf("%w in %s", ErrNoLockfile, dir)
	}

	return lockFile, nil
}

// DetectJSPackageManager returns the first supported package manager found on the PATH.
func DetectJSPackageManager(pathLookup PathLookup) (string, error) {
	for _, manager := range SupportedJSPackageManagers {
		if _, err := pathLookup.LookPath(manager); err == nil {
			return manager, nil
		}
	}

	return "", ErrNoPackageManager
}

// DetectJSPackageManagerBasedOnLockFile maps a lock file to its package manager
// and makes sure that package manager is installed.
func DetectJSPackageManagerBasedOnLockFile(detectedLockFile string, pathLookup PathLookup) (string, error) {
	packageManager, ok := LockFileToPackageManagerMap[detectedLockFile]

	if !ok {
		return "", fmt.Errorf("unsupported lockfile %s it must be one of these %v", detectedLockFile, lockFiles)
	}

	if _, err := pathLookup.LookPath(packageManager); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return "", ErrNoPackageManager
		}
		return "", err
	}

	return packageManager, nil
}

// DetectPackageManagerIn picks the package manager for the project in dir.
// The lock file wins; without one the PATH decides.
func DetectPackageManagerIn(dir string, fs FileSystem, pathLookup PathLookup) (string, error) {
	lockFile, err := DetectLockfileIn(dir, fs)
	if err != nil {
		return DetectJSPackageManager(pathLookup)
	}

	packageManager, err := DetectJSPackageManagerBasedOnLockFile(lockFile, pathLookup)
	if errors.Is(err, ErrNoPackageManager) {
		return DetectJSPackageManager(pathLookup)
	}

	return packageManager, err
}

// DetectCordova resolves the cordova binary named by command.
func DetectCordova(command string, pathLookup PathLookup) (string, error) {
	path, err := pathLookup.LookPath(command)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCordovaNotFound, err)
	}
	return path, nil
}
