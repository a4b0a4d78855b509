// Package custom_errors provides the error values shared by the ionic commands
// and the collaborators they delegate to.
package custom_errors

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidFlag represents an error indicating an invalid flag.
var ErrInvalidFlag = errors.New("invalid flag")

// ErrInvalidArgument represents an error indicating an invalid argument.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrSilent marks a failure that ends a command without being reported,
// for example a child process that was interrupted by the user.
var ErrSilent = errors.New("silent failure")

// ErrUnsupportedHost is returned when the requested platform cannot be built
// on the current operating system.
var ErrUnsupportedHost = errors.New("unsupported host")

var flagNameRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// FlagName is a string type representing the name of a flag.
type FlagName string

// Error validates the FlagName and returns an error if it's invalid.
// A valid flag name is lower case alphanumeric words joined by single dashes.
func (self FlagName) Error() error {
	if !flagNameRegex.MatchString(string(self)) {
		return fmt.Errorf("%w: %s must be lower case alphanumeric words separated by dashes", ErrInvalidFlag, string(self))
	}
	return nil
}

// CreateInvalidFlagErrorWithMessage creates an error with a custom message for an invalid flag.
// It first validates the flag name and returns the validation error if present.
var CreateInvalidFlagErrorWithMessage = func(flagName FlagName, message string) error {
	if err := flagName.Error(); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s %s", ErrInvalidFlag, flagName, message)
}

// CreateInvalidArgumentErrorWithMessage creates an error with a custom message for an invalid argument.
var CreateInvalidArgumentErrorWithMessage = func(message string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, message)
}

// Silence wraps err so that it is swallowed instead of logged. A nil error stays nil.
func Silence(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrSilent, err)
}

// IsSilent reports whether err was marked with Silence.
func IsSilent(err error) bool {
	return errors.Is(err, ErrSilent)
}
