// Package custom_flags provides validated pflag.Value types for the ionic commands.
package custom_flags

import (
	"fmt"
	"path"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/louiss0/ionic-emulate-delegator/custom_errors"
)

var whitespaceOnly = regexp.MustCompile(`^\s*$`)

func isWindows() bool {
	return runtime.GOOS == "windows"
}

func validateFolderPath(value string) bool {
	if isWindows() {
		return validateWindowsFolderPath(value)
	}
	return validatePosixFolderPath(value)
}

// validateWindowsFolderPath accepts drive, UNC and relative paths with either separator.
func validateWindowsFolderPath(value string) bool {
	windowsFolderPathRegex := `^(?:[a-zA-Z]:[/\\]?|\\\\[^/\\:*?"<>|]+\\[^/\\:*?"<>|]+[/\\]?|\.{1,2}[/\\]?|[^/\\:*?"<>|]+)(?:[/\\][^/\\:*?"<>|]+)*[/\\]?$`
	match, _ := regexp.MatchString(windowsFolderPathRegex, value)
	return match
}

func validatePosixFolderPath(value string) bool {
	posixFolderPathRegex := `^(?:/?(?:[a-zA-Z0-9._@ -]+|\.{1,2})(?:/(?:[a-zA-Z0-9._@ -]+|\.{1,2}))*/?|/)$`
	match, _ := regexp.MatchString(posixFolderPathRegex, value)
	return match
}

// FolderPathFlag extends pflag.Value for folder path flags
type FolderPathFlag interface {
	pflag.Value
	FlagName() string
}

// EmptyStringFlag extends pflag.Value for flags that reject blank values
type EmptyStringFlag interface {
	pflag.Value
	FlagName() string
}

// RangeFlag extends pflag.Value for integer flags bounded by Min and Max
type RangeFlag interface {
	pflag.Value
	FlagName() string
	Value() int
	IsSet() bool
	Min() int
	Max() int
}

type folderPathFlag struct {
	value    string
	flagName string
}

func NewFolderPathFlag(flagName string) FolderPathFlag {
	return &folderPathFlag{
		flagName: flagName,
	}
}

func (p folderPathFlag) String() string {
	return p.value
}

// Set rejects blank values and paths whose last segment looks like a file.
func (p *folderPathFlag) Set(value string) error {
	if whitespaceOnly.MatchString(value) {
		return fmt.Errorf("the %s flag cannot be empty or contain only whitespace", p.flagName)
	}

	platform := "POSIX/UNIX"
	if isWindows() {
		platform = "Windows"
	}

	trimmed := strings.TrimRight(value, `/\`)
	if trimmed != "" {
		base := path.Base(strings.ReplaceAll(trimmed, `\`, "/"))
		if path.Ext(base) != "" && base != "." && base != ".." {
			return fmt.Errorf("the %s flag value '%s' is not a valid %s folder path", p.flagName, value, platform)
		}
	}

	if !validateFolderPath(value) {
		return fmt.Errorf("the %s flag value '%s' is not a valid %s folder path", p.flagName, value, platform)
	}

	p.value = value
	return nil
}

func (p folderPathFlag) Type() string {
	return "string"
}

func (p folderPathFlag) FlagName() string {
	return p.flagName
}

type emptyStringFlag struct {
	value    string
	flagName string
}

func NewEmptyStringFlag(flagName string) EmptyStringFlag {
	return &emptyStringFlag{
		flagName: flagName,
	}
}

func (t emptyStringFlag) String() string {
	return t.value
}

func (t *emptyStringFlag) Set(value string) error {
	if whitespaceOnly.MatchString(value) {
		return fmt.Errorf("the %s flag is empty", t.flagName)
	}
	t.value = strings.TrimSpace(value)
	return nil
}

func (t emptyStringFlag) Type() string {
	return "string"
}

func (t emptyStringFlag) FlagName() string {
	return t.flagName
}

// rangeFlag holds an integer within [min, max]. Zero means unset.
type rangeFlag struct {
	value, min, max int
	set             bool
	flagName        string
}

// NewRangeFlag creates a new RangeFlag with the given flag name and range bounds
func NewRangeFlag(flagName string, min, max int) RangeFlag {
	if min > max {
		panic("min must be less than max")
	}
	if min < 0 || max < 0 {
		panic("min and max must be non-negative")
	}
	return &rangeFlag{
		min:      min,
		max:      max,
		flagName: flagName,
	}
}

// String is empty until the flag is set so help output shows no default.
func (r rangeFlag) String() string {
	if !r.set {
		return ""
	}
	return strconv.Itoa(r.value)
}

func (r rangeFlag) Value() int {
	return r.value
}

func (r rangeFlag) IsSet() bool {
	return r.set
}

func (r *rangeFlag) Set(value string) error {
	num, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return custom_errors.CreateInvalidFlagErrorWithMessage(
			custom_errors.FlagName(r.flagName),
			fmt.Sprintf("must be an integer between %d and %d", r.min, r.max),
		)
	}
	if num < r.min || num > r.max {
		return custom_errors.CreateInvalidFlagErrorWithMessage(
			custom_errors.FlagName(r.flagName),
			fmt.Sprintf("must be between %d and %d", r.min, r.max),
		)
	}
	r.value = num
	r.set = true
	return nil
}

func (r rangeFlag) Type() string {
	return "int"
}

func (r rangeFlag) FlagName() string {
	return r.flagName
}

func (r rangeFlag) Min() int {
	return r.min
}

func (r rangeFlag) Max() int {
	return r.max
}
