package cordova

import (
	"strings"
)

// ionicOnlyFlags are understood by the ionic CLI and must not reach cordova.
// The value reports whether the flag consumes the next token.
var ionicOnlyFlags = map[string]bool{
	"--livereload":      false,
	"-l":                false,
	"--port":            true,
	"-p":                true,
	"--livereload-port": true,
	"-r":                true,
	"--address":         true,
	"--consolelogs":     false,
	"-c":                false,
	"--serverlogs":      false,
	"-s":                false,
	"--cwd":             true,
	"-C":                true,
	"--verbose":         false,
}

// FilterArgumentsForCordova drops ionic-only flags, and the values they take,
// from rawArgs. Everything else is forwarded in order. Shorthands are read the
// way pflag reads them: "-p8200" carries its value and "-lc" sets two flags.
// Arguments after "--" are forwarded untouched.
func FilterArgumentsForCordova(rawArgs []string) []string {
	filtered := make([]string, 0, len(rawArgs))

	for i := 0; i < len(rawArgs); i++ {
		arg := rawArgs[i]
		nextIsValue := i+1 < len(rawArgs) && !strings.HasPrefix(rawArgs[i+1], "-")

		if arg == "--" {
			filtered = append(filtered, rawArgs[i:]...)
			break
		}

		if isShorthandGroup(arg) {
			kept, consumedNext := filterShorthands(arg[1:], nextIsValue)
			if kept != "" {
				filtered = append(filtered, "-"+kept)
			}
			if consumedNext {
				i++
			}
			continue
		}

		name, _, hasInlineValue := strings.Cut(arg, "=")

		takesValue, ionicOnly := ionicOnlyFlags[name]
		if !ionicOnly {
			filtered = append(filtered, arg)
			continue
		}

		if takesValue && !hasInlineValue && nextIsValue {
			i++
		}
	}

	return filtered
}

func isShorthandGroup(arg string) bool {
	return len(arg) > 1 && arg[0] == '-' && arg[1] != '-'
}

// filterShorthands walks a group of shorthands and returns the ones cordova
// should still see. A value shorthand ends the group: the rest of the group is
// its value, or the next argument is when the group ends with it.
func filterShorthands(shorthands string, nextIsValue bool) (string, bool) {
	var kept strings.Builder

	for i := 0; i < len(shorthands); i++ {
		rest := shorthands[i+1:]
		takesValue, ionicOnly := ionicOnlyFlags["-"+shorthands[i:i+1]]

		switch {
		case !ionicOnly && strings.HasPrefix(rest, "="):
			kept.WriteString(shorthands[i:])
			return kept.String(), false
		case !ionicOnly:
			kept.WriteByte(shorthands[i])
		case takesValue:
			return kept.String(), rest == "" && nextIsValue
		}
	}

	return kept.String(), false
}
