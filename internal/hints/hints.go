// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-mdtypst/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForTypstNotFound returns hints for a missing typst binary.
func ForTypstNotFound() string {
	var hints []string

	if IsInContainer() {
		hints = append(hints, "install typst in the image (it is a single static binary)")
	} else {
		hints = append(hints, "install typst from https://github.com/typst/typst/releases")
	}

	if os.Getenv("MDTYPST_TYPST_BIN") == "" {
		hints = append(hints, "or point MDTYPST_TYPST_BIN / --typst at the binary")
	}

	return formatHints(hints)
}

// ForInterpreterNotFound returns hints for a missing interpreter command.
func ForInterpreterNotFound(command string) string {
	return format("install " + command + " or set its command under execute.interpreters")
}

// ForUnsupportedLanguage lists the configured languages.
func ForUnsupportedLanguage(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for long-running code or large diagrams, use --timeout flag")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in the user config dir.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(filepath.ToSlash(p), "/go-mdtypst/") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
