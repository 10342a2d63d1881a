// Package flagx lets several components share os.Args without tripping over
// each other's flags: each one filters the arguments down to the flags it
// owns before handing them to its own flag.FlagSet.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// ConfigEnvVar names the environment variable consulted when no config file
// flag is given.
const ConfigEnvVar = "CHAINKEEPER_CONFIG"

// FilterArgs returns the subset of args made of allowed flags and their values.
//
// Both "-f value" and "-f=value" forms are recognised. A separate value is
// only taken when the next argument does not itself look like a flag.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, found := strings.Cut(arg, "="); found && strings.HasPrefix(arg, "-") {
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}

		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigFile returns the config file path given with -c, -config or --config in
// os.Args, falling back to $CHAINKEEPER_CONFIG. Empty means no file.
func ConfigFile() string {
	var path string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config", "--config"})

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "Path to config file")
	fs.StringVar(&path, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	if path == "" {
		path = os.Getenv(ConfigEnvVar)
	}

	return path
}
