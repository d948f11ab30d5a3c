// Package flagx lets several configuration layers share os.Args without
// tripping over each other's flags.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs keeps only the flags named in allowed, together with their
// values. It is FilterArgsWithSwitches without boolean switches.
func FilterArgs(args []string, allowed []string) []string {
	return FilterArgsWithSwitches(args, allowed, nil)
}

// FilterArgsWithSwitches keeps the flags named in valued (with the value that
// follows them, or the "=value" form) and the boolean flags named in switches.
// A switch never consumes the next argument, so "-dev-idp -a :80" keeps both.
//
// The result is never nil.
func FilterArgsWithSwitches(args []string, valued []string, switches []string) []string {
	takesValue := make(map[string]bool, len(valued)+len(switches))
	for _, f := range valued {
		takesValue[f] = true
	}
	for _, f := range switches {
		takesValue[f] = false
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		if name, _, ok := strings.Cut(arg, "="); ok {
			if _, known := takesValue[name]; known {
				out = append(out, arg)
			}
			continue
		}

		hasValue, known := takesValue[arg]
		if !known {
			continue
		}
		out = append(out, arg)
		if hasValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}

// ConfigFile returns the JSON config path given with -c or -config, or ""
// when neither is present. Other flags are ignored.
func ConfigFile() string {
	var path string

	fs := flag.NewFlagSet("config-file", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (short)")
	_ = fs.Parse(FilterArgs(os.Args[1:], []string{"-c", "-config"}))

	return path
}
