package main

import (
	"fmt"
	"os"
	"slices"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

// commands lists the subcommands runMain dispatches.
var commands = []string{"build", "config", "doctor", "completion", "version", "help"}

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if slices.Contains(os.Args, "-v") || slices.Contains(os.Args, "--verbose") {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain dispatches the command line and returns the process exit code.
// A first argument that names a Markdown file or a directory runs build.
func runMain(args []string, env *Environment) int {
	warnUnknownEnvVars(env.Stderr)

	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[1], args[2:]
	if !isCommand(cmd) {
		if looksLikeInput(cmd) {
			return runBuildCmd(args[1:], env)
		}
		if cmd == "-h" || cmd == "--help" {
			printUsage(env.Stdout)
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "unknown command: %s\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}

	switch cmd {
	case "build":
		return runBuildCmd(rest, env)
	case "config":
		return exitWith(env, runConfigCmd(rest, env))
	case "doctor":
		return runDoctorCmd(rest, env)
	case "completion":
		return exitWith(env, runCompletion(rest, env))
	case "version":
		fmt.Fprintf(env.Stdout, "go-mdtypst %s\n", Version)
		return ExitSuccess
	default:
		runHelp(rest, env)
		return ExitSuccess
	}
}

// exitWith prints err, if any, and maps it to an exit code.
func exitWith(env *Environment, err error) int {
	if err != nil {
		fmt.Fprintln(env.Stderr, "error:", err)
	}
	return exitCodeFor(err)
}

// isCommand reports whether arg is a subcommand name (case sensitive).
func isCommand(arg string) bool {
	return slices.Contains(commands, arg)
}

// looksLikeInput reports whether arg is a Markdown path or an existing
// directory rather than a command.
func looksLikeInput(arg string) bool {
	if arg == "" || arg[0] == '-' {
		return false
	}
	if isMarkdownPath(arg) {
		return true
	}
	info, err := os.Stat(arg)
	return err == nil && info.IsDir()
}
